package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize strips dangerous HTML from user supplied text to prevent stored
// XSS in titles, content, and comments.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
