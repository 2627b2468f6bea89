// Package plate implements the license plate grammar and the OCR candidate selection rule.
package plate

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

// Two letters, two digits, two letters, four digits, single-space separated ("KA 18 EQ 0001").
var plateRegex = regexp.MustCompile(`^[A-Z]{2} [0-9]{2} [A-Z]{2} [0-9]{4}$`)

// QualifyingRule names the OCR selection policy: the first recognized string that
// contains at least one letter and at least one digit wins. Later candidates are
// ignored even when their confidence is higher.
const QualifyingRule = "first-letter-and-digit"

// UnknownPrefix marks detections whose OCR produced nothing usable. Labels built
// from it never pass Validate.
const UnknownPrefix = "Unknown_"

// Validate reports whether text matches the plate grammar. Never fails.
func Validate(text string) bool {
	return plateRegex.MatchString(text)
}

// Qualifies reports whether a recognized string is plate-like enough to be considered.
func Qualifies(text string) bool {
	var hasLetter, hasDigit bool
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if hasLetter && hasDigit {
			return true
		}
	}
	return false
}

// SelectText applies QualifyingRule to the recognizer output. When no candidate
// qualifies it returns UnknownLabel(box) and false.
func SelectText(candidates []domain.TextCandidate, box domain.Box) (string, bool) {
	for _, c := range candidates {
		if Qualifies(c.Text) {
			return c.Text, true
		}
	}
	return UnknownLabel(box), false
}

// UnknownLabel derives a placeholder identity from the box position so that
// unrecognized detections do not collide with each other.
func UnknownLabel(box domain.Box) string {
	return fmt.Sprintf("%s%d_%d", UnknownPrefix, box.X, box.Y)
}
