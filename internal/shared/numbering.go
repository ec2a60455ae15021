package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentNumber builds a default invoice or order number from the creation
// time plus a short random suffix, so documents created in the same
// millisecond still get distinct numbers.
func DocumentNumber(prefix string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%d-%s", prefix, at.UnixMilli(), suffix)
}
