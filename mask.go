package authcore

import "strings"

// MaskEmail partially redacts an email address for client display: the
// first two characters of the local part are kept, the rest replaced by
// "***", and the domain left intact ("jo***@example.com").
func MaskEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	i := strings.IndexByte(email, '@')
	if i <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}

	local, domain := email[:i], email[i+1:]
	keep := 2
	if len(local) < keep {
		keep = len(local)
	}

	return local[:keep] + "***@" + domain
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
