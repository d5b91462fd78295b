package transaction

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// newInvoiceNumber returns INV-YYYYMMDD-XXXXXXXX where the suffix is the
// upper-cased head of a random UUID.
func newInvoiceNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "INV-" + at.Format("20060102") + "-" + suffix
}
