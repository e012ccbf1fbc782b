package payments

import "fmt"

// MaxReceiptSize caps receipt uploads at 10 MiB.
const MaxReceiptSize = 10 << 20

// Receipt is an uploaded proof-of-payment file.
type Receipt struct {
	Data        []byte
	ContentType string
}

var receiptExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// Validate checks the receipt's content type and size.
func (r *Receipt) Validate() error {
	if r == nil || len(r.Data) == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidReceipt)
	}
	if _, ok := receiptExtensions[r.ContentType]; !ok {
		return fmt.Errorf("%w: unsupported content type %q", ErrInvalidReceipt, r.ContentType)
	}
	if len(r.Data) > MaxReceiptSize {
		return fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidReceipt, MaxReceiptSize)
	}
	return nil
}

// Extension returns the file extension for the receipt's content type.
func (r *Receipt) Extension() string {
	return receiptExtensions[r.ContentType]
}
