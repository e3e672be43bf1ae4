// Package inbound decodes SNS-wrapped SES receipt notifications into the
// plain InboundEmail the pipeline consumes. A message that fails any decode
// stage is rejected here and never reaches command execution.
package inbound

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/geistdevelopment/wetter-bericht/internal/domain"
)

// SNS message types relevant to the inbound endpoint.
const (
	TypeNotification             = "Notification"
	TypeSubscriptionConfirmation = "SubscriptionConfirmation"
)

// Envelope is the outer SNS wrapper posted to the inbound endpoint.
type Envelope struct {
	Type         string `json:"Type"`
	MessageID    string `json:"MessageId"`
	TopicArn     string `json:"TopicArn"`
	Message      string `json:"Message"`
	SubscribeURL string `json:"SubscribeURL"`
}

// sesNotification is the SES receipt event carried inside Envelope.Message.
type sesNotification struct {
	Mail struct {
		Source        string `json:"source"`
		CommonHeaders struct {
			Subject string `json:"subject"`
		} `json:"commonHeaders"`
	} `json:"mail"`
	Content string `json:"content"`
}

// ParseEnvelope decodes the raw POST body into an SNS envelope.
func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode sns envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("sns envelope missing Type")
	}
	return env, nil
}

// DecodeNotification unwraps a Notification envelope's SES receipt event into
// an InboundEmail: sender from the MIME From header (falling back to the SMTP
// envelope source), subject from the common headers, body from the text part.
func DecodeNotification(message string) (domain.InboundEmail, error) {
	var event sesNotification
	if err := json.Unmarshal([]byte(message), &event); err != nil {
		return domain.InboundEmail{}, fmt.Errorf("decode ses notification: %w", err)
	}
	if event.Content == "" {
		return domain.InboundEmail{}, fmt.Errorf("ses notification has no content")
	}

	raw := decodeContent(event.Content)
	envelope, err := enmime.ReadEnvelope(strings.NewReader(raw))
	if err != nil {
		return domain.InboundEmail{}, fmt.Errorf("parse mime message: %w", err)
	}

	sender := event.Mail.Source
	if from := envelope.GetHeader("From"); from != "" {
		if addr, err := mail.ParseAddress(from); err == nil {
			sender = addr.Address
		}
	}
	if sender == "" {
		return domain.InboundEmail{}, fmt.Errorf("inbound message has no sender")
	}

	subject := envelope.GetHeader("Subject")
	if subject == "" {
		subject = event.Mail.CommonHeaders.Subject
	}

	return domain.InboundEmail{
		Sender:  sender,
		Subject: subject,
		Body:    envelope.Text,
	}, nil
}

// decodeContent handles both raw and base64-encoded MIME content. SES
// base64-encodes the content field; local test harnesses tend to post it raw.
func decodeContent(content string) string {
	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return content
	}
	return string(decoded)
}
