package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// maxSubmitLength bounds a single submission. Spoken input transcripts are
// short; anything larger is a client bug.
const maxSubmitLength = 8192

// ValidateSubmitText validates a submitted utterance.
func ValidateSubmitText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("text cannot be empty")
	}
	if len(text) > maxSubmitLength {
		return errors.New("text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("text must be valid UTF-8")
	}
	return nil
}
