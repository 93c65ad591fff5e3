package sms

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// LogSender logs messages instead of sending them — used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, to, body string) error {
	s.logger.InfoContext(ctx, "verification sms (local dev)", "to", to, "body", body)
	return nil
}

// TwilioSender delivers messages via the Twilio API — used in staging/production.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func (s *TwilioSender) Send(_ context.Context, to, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, TwilioSender otherwise.
func NewSender(env, accountSID, authToken, from string, logger *slog.Logger) Sender {
	if env == "local" {
		return &LogSender{logger: logger}
	}
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}
