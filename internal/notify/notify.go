// Package notify delivers invoice summaries to customers by SMS or email.
package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultCountryCode is prefixed to phone numbers given without one.
const DefaultCountryCode = "+91"

// Sender delivers a plain-text message to a recipient.
type Sender interface {
	Send(ctx context.Context, recipient, content string) error
}

// NormalizePhone prefixes cc to phone unless it already carries a "+".
// Spaces and dashes are dropped.
func NormalizePhone(phone, cc string) string {
	phone = strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	if cc == "" {
		cc = DefaultCountryCode
	}
	if !strings.HasPrefix(cc, "+") {
		cc = "+" + cc
	}
	return cc + phone
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	Log         zerolog.Logger
	CountryCode string
}

func (s LogSender) Send(ctx context.Context, recipient, content string) error {
	s.Log.Info().
		Str("to", NormalizePhone(recipient, s.CountryCode)).
		Int("chars", len(content)).
		Msg("sms not configured, message logged")
	s.Log.Debug().Msg(content)
	return nil
}
