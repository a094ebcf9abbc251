package ids

import (
	"github.com/google/uuid"
	"github.com/jxskiss/base62"
)

// New returns a short unique id: a base62-encoded UUIDv4. Used for trade
// plans, trades and client order ids.
func New() string {
	u := uuid.New()
	return base62.EncodeToString(u[:])
}

// NewWithPrefix returns New() prefixed with p and a dash, e.g. "plan-3xK...".
func NewWithPrefix(p string) string {
	return p + "-" + New()
}
