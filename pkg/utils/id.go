package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateClientID generates a unique event-hub client ID.
func GenerateClientID() string {
	return GenerateID("client")
}

// GenerateSessionID generates a unique feed session ID.
func GenerateSessionID() string {
	return GenerateID("session")
}

// GenerateID generates a random ID with prefix.
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}
