package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the booking flow.
type BookingMetrics struct {
	bookingsTotal  *prometheus.CounterVec
	slotCacheTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mindwell",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		slotCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mindwell",
			Subsystem: "bookings",
			Name:      "slot_cache_total",
			Help:      "Slot availability cache lookups",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.slotCacheTotal)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveSlotCache(result string) {
	if m == nil {
		return
	}
	m.slotCacheTotal.WithLabelValues(result).Inc()
}

// PaymentMetrics exposes counters for payment reconciliation.
type PaymentMetrics struct {
	submittedTotal *prometheus.CounterVec
	reviewedTotal  *prometheus.CounterVec
	receiptErrors  prometheus.Counter
}

func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	m := &PaymentMetrics{
		submittedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mindwell",
			Subsystem: "payments",
			Name:      "submitted_total",
			Help:      "Payment submissions by method and outcome",
		}, []string{"method", "outcome"}),
		reviewedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mindwell",
			Subsystem: "payments",
			Name:      "reviewed_total",
			Help:      "Admin payment reviews by verdict",
		}, []string{"verdict"}),
		receiptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mindwell",
			Subsystem: "payments",
			Name:      "receipt_store_failures_total",
			Help:      "Receipt uploads that failed at the object store",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submittedTotal, m.reviewedTotal, m.receiptErrors)
	return m
}

func (m *PaymentMetrics) ObserveSubmission(method, outcome string) {
	if m == nil {
		return
	}
	m.submittedTotal.WithLabelValues(method, outcome).Inc()
}

func (m *PaymentMetrics) ObserveReview(verdict string) {
	if m == nil {
		return
	}
	m.reviewedTotal.WithLabelValues(verdict).Inc()
}

func (m *PaymentMetrics) ObserveReceiptStoreFailure() {
	if m == nil {
		return
	}
	m.receiptErrors.Inc()
}

// NotifyMetrics exposes counters/histograms for notification dispatch.
type NotifyMetrics struct {
	sentTotal    *prometheus.CounterVec
	sendDuration *prometheus.HistogramVec
}

func NewNotifyMetrics(reg prometheus.Registerer) *NotifyMetrics {
	m := &NotifyMetrics{
		sentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mindwell",
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Notification sends by kind and outcome",
		}, []string{"kind", "outcome"}),
		sendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mindwell",
			Subsystem: "notify",
			Name:      "send_duration_seconds",
			Help:      "Latency of notification delivery",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sentTotal, m.sendDuration)
	return m
}

func (m *NotifyMetrics) ObserveSend(kind, outcome string) {
	if m == nil {
		return
	}
	m.sentTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *NotifyMetrics) ObserveSendDuration(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.sendDuration.WithLabelValues(kind).Observe(seconds)
}
