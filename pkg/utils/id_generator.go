package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateID generates a new UUID for correlation or anchor journal IDs
func GenerateID() string {
	return uuid.New().String()
}

// GenerateDoleanceReference generates a public tracking code for a doleance.
// Format: DOL-<year>-<6 random uppercase hex chars><last 4 digits of epoch millis>.
func GenerateDoleanceReference() string {
	randomPart := make([]byte, 3)
	_, _ = rand.Read(randomPart)

	millis := fmt.Sprintf("%d", GetCurrentTimeMillis())
	suffix := millis[len(millis)-4:]

	return fmt.Sprintf("DOL-%d-%s%s",
		time.Now().Year(),
		strings.ToUpper(hex.EncodeToString(randomPart)),
		suffix,
	)
}

// GenerateInterventionReference generates a reference code for an intervention.
// Format: INT-<year>-<last 6 digits of epoch millis>.
func GenerateInterventionReference() string {
	millis := fmt.Sprintf("%d", GetCurrentTimeMillis())
	return fmt.Sprintf("INT-%d-%s", time.Now().Year(), millis[len(millis)-6:])
}

// HashDescription computes the content hash anchored on the ledger for a
// doleance description. The 0x prefix matches the bytes32 representation the
// ledger gateway expects.
func HashDescription(description string) string {
	sum := sha256.Sum256([]byte(description))
	return "0x" + hex.EncodeToString(sum[:])
}
