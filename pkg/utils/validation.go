package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// DoleanceStatuses lists the allowed doleance lifecycle statuses.
var DoleanceStatuses = []string{
	"received",
	"in_review",
	"assigned",
	"resolution_planned",
	"resolved",
	"closed",
	"rejected",
}

// InterventionStatuses lists the allowed intervention lifecycle statuses.
var InterventionStatuses = []string{
	"created",
	"planned",
	"assigned",
	"in_progress",
	"completed",
	"validated",
	"cancelled",
}

// Priorities lists the allowed priority levels for doleances and interventions.
var Priorities = []string{"low", "medium", "high", "urgent"}

// ValidateDoleanceStatus validates a doleance status value
func ValidateDoleanceStatus(status string) error {
	for _, s := range DoleanceStatuses {
		if s == status {
			return nil
		}
	}
	return fmt.Errorf("invalid status: %s", status)
}

// ValidateInterventionStatus validates an intervention status value
func ValidateInterventionStatus(status string) error {
	for _, s := range InterventionStatuses {
		if s == status {
			return nil
		}
	}
	return fmt.Errorf("invalid status: %s", status)
}

// ValidatePriority validates a priority value
func ValidatePriority(priority string) error {
	for _, p := range Priorities {
		if p == priority {
			return nil
		}
	}
	return fmt.Errorf("invalid priority: %s", priority)
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

// SanitizeString removes dangerous characters from user input
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")
	// Trim whitespace
	input = strings.TrimSpace(input)
	return input
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 10 // Default limit
	}
	if limit > 100 {
		return 100 // Max limit
	}
	return limit
}

// ValidateOffset validates pagination offset
func ValidateOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// ValidateRequired validates that a field is not empty
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateMaxLength validates maximum string length
func ValidateMaxLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%s exceeds maximum length of %d characters", fieldName, maxLength)
	}
	return nil
}
