package ids

import (
	"strings"

	"github.com/segmentio/ksuid"
)

const localPrefix = "local-"

func New() string {
	return ksuid.New().String()
}

// NewLocal returns a key for an entry that exists only on this client and
// has not been assigned an id by the portal yet.
func NewLocal() string {
	return localPrefix + New()
}

func IsLocal(id string) bool {
	return strings.HasPrefix(id, localPrefix)
}
