package notify

import (
	"fmt"
	"strings"

	"github.com/usamabutt6800/mindwell-backend/internal/appointments"
	"github.com/usamabutt6800/mindwell-backend/internal/payments"
)

// renderEmails expands a notification job into the concrete emails it
// produces. Booking requests and submitted receipts also alert the clinic
// inbox, since both wait on an admin action.
func renderEmails(j job, clinicName, adminEmail string) []EmailMessage {
	if j.Kind == jobContactMessage {
		return renderContactEmail(j, adminEmail)
	}

	appt := j.Appointment
	var out []EmailMessage

	switch j.Kind {
	case jobAppointmentCreated:
		out = append(out, EmailMessage{
			To:      appt.ClientEmail,
			ToName:  appt.ClientName,
			Subject: fmt.Sprintf("Appointment request received - %s", clinicName),
			Body: fmt.Sprintf(
				"Dear %s,\n\nWe received your appointment request:\n\n"+
					"  Service: %s\n  Date: %s\n  Time: %s\n  Fee: %d PKR\n\n"+
					"Your slot is held while we await your payment. Please submit the "+
					"consultation fee along with your transaction receipt to confirm the booking.\n\n"+
					"Warm regards,\n%s",
				appt.ClientName, serviceLabel(appt.ServiceType), appt.Date, appt.Time, appt.Amount, clinicName),
		})
		if adminEmail != "" {
			out = append(out, EmailMessage{
				To:      adminEmail,
				Subject: fmt.Sprintf("New appointment request: %s on %s", appt.ClientName, appt.Date),
				Body: fmt.Sprintf(
					"New booking request.\n\n  Client: %s (%s, %s)\n  Service: %s\n  Date: %s at %s\n",
					appt.ClientName, appt.ClientEmail, appt.ClientPhone,
					serviceLabel(appt.ServiceType), appt.Date, appt.Time),
			})
		}

	case jobPaymentSubmitted:
		out = append(out, EmailMessage{
			To:      appt.ClientEmail,
			ToName:  appt.ClientName,
			Subject: fmt.Sprintf("Payment receipt received - %s", clinicName),
			Body: fmt.Sprintf(
				"Dear %s,\n\nWe received your payment receipt for the appointment on %s at %s. "+
					"Our team will verify it shortly and send you a confirmation.\n\n"+
					"Warm regards,\n%s",
				appt.ClientName, appt.Date, appt.Time, clinicName),
		})
		if adminEmail != "" {
			body := fmt.Sprintf(
				"A payment receipt is awaiting review.\n\n  Client: %s\n  Appointment: %s at %s\n",
				appt.ClientName, appt.Date, appt.Time)
			if j.Payment != nil {
				body += fmt.Sprintf("  Method: %s\n  Transaction: %s\n  Amount: %d %s\n  Receipt: %s\n",
					j.Payment.Method, j.Payment.TransactionID, j.Payment.Amount, j.Payment.Currency, j.Payment.ReceiptURL)
			}
			out = append(out, EmailMessage{
				To:      adminEmail,
				Subject: fmt.Sprintf("Payment awaiting review: %s", appt.ClientName),
				Body:    body,
			})
		}

	case jobPaymentVerified:
		out = append(out, EmailMessage{
			To:      appt.ClientEmail,
			ToName:  appt.ClientName,
			Subject: fmt.Sprintf("Appointment confirmed - %s", clinicName),
			Body: fmt.Sprintf(
				"Dear %s,\n\nYour payment has been verified and your appointment is confirmed:\n\n"+
					"  Service: %s\n  Date: %s\n  Time: %s\n\n"+
					"We look forward to seeing you.\n\nWarm regards,\n%s",
				appt.ClientName, serviceLabel(appt.ServiceType), appt.Date, appt.Time, clinicName),
		})

	case jobPaymentRejected:
		reason := ""
		if j.Payment != nil {
			reason = j.Payment.RejectReason
		}
		out = append(out, EmailMessage{
			To:      appt.ClientEmail,
			ToName:  appt.ClientName,
			Subject: fmt.Sprintf("Payment could not be verified - %s", clinicName),
			Body: fmt.Sprintf(
				"Dear %s,\n\nWe could not verify the payment for your appointment on %s at %s.\n\n"+
					"  Reason: %s\n\n"+
					"The appointment has been cancelled and the slot released. You are welcome "+
					"to book again with a valid payment receipt.\n\nWarm regards,\n%s",
				appt.ClientName, appt.Date, appt.Time, reason, clinicName),
		})
	}

	return out
}

func renderContactEmail(j job, adminEmail string) []EmailMessage {
	if adminEmail == "" || j.Contact == nil {
		return nil
	}
	msg := j.Contact
	subject := msg.Subject
	if subject == "" {
		subject = "Website inquiry"
	}
	return []EmailMessage{{
		To:      adminEmail,
		Subject: fmt.Sprintf("Contact form: %s", subject),
		Body: fmt.Sprintf(
			"New inquiry from the website.\n\n  Name: %s\n  Email: %s\n  Phone: %s\n\n%s\n",
			msg.Name, msg.Email, msg.Phone, msg.Message),
	}}
}

func serviceLabel(serviceType string) string {
	return strings.ReplaceAll(serviceType, "_", " ")
}

func jobForAppointment(kind jobKind, appt *appointments.Appointment, payment *payments.Payment) job {
	return job{Kind: kind, Appointment: appt, Payment: payment}
}
