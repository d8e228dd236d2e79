// Package validation holds input rules shared by services and handlers.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Length limits for user-supplied text.
const (
	MaxPostTextLen    = 5000
	MaxCommentTextLen = 2000
)

// ValidatePostText checks optional post text. Emptiness is judged by the
// caller together with the image.
func ValidatePostText(text string) error {
	if utf8.RuneCountInString(text) > MaxPostTextLen {
		return fmt.Errorf("text too long (max %d characters)", MaxPostTextLen)
	}
	return nil
}

// ValidateCommentText checks comment text, which is required.
func ValidateCommentText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text field is required")
	}
	if utf8.RuneCountInString(text) > MaxCommentTextLen {
		return fmt.Errorf("comment too long (max %d characters)", MaxCommentTextLen)
	}
	return nil
}
