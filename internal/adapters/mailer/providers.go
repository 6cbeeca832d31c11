package mailer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

type ResendProvider struct {
	client *resend.Client
}

func NewResendProvider(apiKey string) *ResendProvider {
	return &ResendProvider{client: resend.NewClient(apiKey)}
}

func (r *ResendProvider) Name() string { return "resend" }

func (r *ResendProvider) Send(msg Message) (SendResult, error) {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	if msg.Text != "" {
		params.Text = msg.Text
	}
	sent, err := r.client.Emails.Send(params)
	if err != nil {
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}
	return SendResult{ProviderMessageID: sent.Id}, nil
}

// LogProvider writes messages to the log instead of sending them. Used when
// RESEND_API_KEY is unset.
type LogProvider struct {
	log zerolog.Logger
}

func NewLogProvider(l zerolog.Logger) *LogProvider { return &LogProvider{log: l} }

func (l *LogProvider) Name() string { return "log" }

func (l *LogProvider) Send(msg Message) (SendResult, error) {
	id := uuid.NewString()
	l.log.Info().
		Str("provider", "log").
		Str("from", msg.From).
		Str("to", strings.Join(msg.To, ", ")).
		Str("subject", msg.Subject).
		Int("html_length", len(msg.HTML)).
		Int("text_length", len(msg.Text)).
		Str("fake_message_id", id).
		Msg("mailer: email logged (not sent)")
	if msg.Text != "" {
		l.log.Debug().Str("text", msg.Text).Msg("mailer: email text body")
	}
	return SendResult{ProviderMessageID: "log-" + id}, nil
}
