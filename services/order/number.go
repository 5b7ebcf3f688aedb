package order

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const numberPrefix = "ORD-"

// NumberGenerator produces human-readable order numbers. Uniqueness is
// enforced by the store, not by the generator.
type NumberGenerator func(now time.Time) string

// DefaultNumber is ORD-<base36 unix nanos>-<6 random chars>.
func DefaultNumber(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixNano(), 36))
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return numberPrefix + ts + "-" + suffix
}
