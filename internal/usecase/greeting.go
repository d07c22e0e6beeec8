package usecase

import (
	"cold-message/internal/catalog"
	"cold-message/internal/domain"
)

const (
	emailGreeting   = "Hello! "
	defaultGreeting = "Hi! "
)

// NormalizeGreeting makes sure raw opens with an allowed greeting. Conforming
// text is returned unchanged; otherwise a greeting is prepended and the rest of
// the text is left as-is.
func NormalizeGreeting(c *catalog.Catalog, raw string, t domain.MessageType) string {
	if c.HasGreeting(raw) {
		return raw
	}
	if t == domain.MessageTypeEmail {
		return emailGreeting + raw
	}
	return defaultGreeting + raw
}
