package core

import (
	"strings"

	"github.com/google/uuid"
)

// NewIdentifier returns a random identifier suitable for namespacing atlas keys
// and tagging loaders in logs.
func NewIdentifier() string {
	return uuid.NewString()
}

// ShortIdentifier trims an identifier to its first group, for log output.
func ShortIdentifier(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
