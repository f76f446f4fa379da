// Package validation holds input checks shared by the service layer.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxContentLength bounds posts, comments and direct messages, in characters.
const MaxContentLength = 10000

// Content trims surrounding whitespace and checks the result is non-empty and
// at most MaxContentLength characters. label prefixes the error message.
func Content(content, label string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%s content is required", label)
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", fmt.Errorf("%s too long (max %d characters)", label, MaxContentLength)
	}
	return content, nil
}
