package service

import "regexp"

// emailPattern is local-part "@" domain "." tld, with no whitespace anywhere
// and no "@" outside the separator. No length or IDN checks.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail reports whether s is a structurally valid email address.
func ValidateEmail(s string) bool {
	return emailPattern.MatchString(s)
}
