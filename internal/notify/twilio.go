package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/go-retail/internal/config"
	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the part of the Twilio REST client used here.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSender sends SMS through the Twilio Messages API.
type TwilioSender struct {
	api  messageCreator
	from string
	cc   string
	log  zerolog.Logger
}

func NewTwilioSender(cfg config.TwilioConfig, log zerolog.Logger) (*TwilioSender, error) {
	if !cfg.SMSEnabled() {
		return nil, errors.New("twilio credentials and sender number are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{api: client.Api, from: cfg.FromNumber, cc: cfg.DefaultCountryCode, log: log}, nil
}

func (s *TwilioSender) Send(ctx context.Context, recipient, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := NormalizePhone(recipient, s.cc)
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(content)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	sid := ""
	if msg != nil && msg.Sid != nil {
		sid = *msg.Sid
	}
	s.log.Info().Str("to", to).Str("sid", sid).Msg("sms sent")
	return nil
}
