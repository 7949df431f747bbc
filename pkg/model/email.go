package model

import "strings"

// MaskEmail hides the local part of an address except its first character:
// "alice@example.com" becomes "a****@example.com".
func MaskEmail(email string) string {
	local, domain, found := strings.Cut(email, "@")
	first := ""
	if local != "" {
		first = string([]rune(local)[:1])
	}
	if !found {
		return first + "****"
	}
	return first + "****@" + domain
}
