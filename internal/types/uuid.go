package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	UUID_PREFIX_EVENT          = "evt"
	UUID_PREFIX_REQUEST        = "req"
	UUID_PREFIX_WEBHOOK_EVENT  = "webhook"
	UUID_PREFIX_CHARGE_ATTEMPT = "chrg"
)

// GenerateUUID returns a lowercase uuid v4 without dashes.
func GenerateUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// GenerateUUIDWithPrefix returns a prefixed uuid, ex "evt_0123..."
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
