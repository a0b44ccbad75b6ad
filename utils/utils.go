package utils

// MaxMessageLength is the platform limit for a single message body.
const MaxMessageLength = 2000

// StringPtr returns a pointer to the given string.
// This is a helper function for discordgo fields that require a *string.
func StringPtr(s string) *string {
	return &s
}

// TruncateMessage cuts s to at most max bytes without splitting a UTF-8
// sequence, marking the cut with an ellipsis.
func TruncateMessage(s string, max int) string {
	if len(s) <= max {
		return s
	}
	const marker = "..."
	cut := max - len(marker)
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + marker
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
