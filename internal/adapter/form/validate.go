package form

import (
	"errors"
	"regexp"

	"github.com/fullstackverse/form-gateway/internal/domain"
)

// emailPattern is a deliberately permissive local@domain.tld shape, not full
// RFC 5322.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minContactDigits = 6
	maxContactDigits = 20
)

// Policy configures optional required-field enforcement. The zero value
// matches the historical lenient behavior: a completely empty submission
// passes.
type Policy struct {
	RequireFields bool // require full name and project description
}

// Validate checks a normalized submission and returns the first violation
// found, or nil. Field order: email, contact number, then the optional
// required-field checks.
func Validate(sub domain.Submission, policy Policy) error {
	if sub.Email != "" && !emailPattern.MatchString(sub.Email) {
		return errors.New("Invalid email format")
	}

	if sub.ContactNumber != "" {
		digits := StripNonDigits(sub.ContactNumber)
		if len(digits) > 0 && (len(digits) < minContactDigits || len(digits) > maxContactDigits) {
			return errors.New("Contact number length looks invalid")
		}
	}

	if policy.RequireFields {
		if sub.FullName == "" {
			return errors.New("Full name is required")
		}
		if sub.ProjectDescription == "" {
			return errors.New("Project description is required")
		}
	}

	return nil
}
