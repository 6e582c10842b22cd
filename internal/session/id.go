// Package session covers the session lifecycle: ids, attribution, device
// class, new-vs-returning visitors and the end-of-session summary.
package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns "sess_" + base36 millisecond timestamp + "_" + random suffix.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return "sess_" + strconv.FormatInt(now.UnixMilli(), 36) + "_" + suffix
}
