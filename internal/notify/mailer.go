package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/medibook/clinic-platform/pkg/logging"
)

// Recipient is the destination of a single notification email.
type Recipient struct {
	Email string
	Name  string
}

// Mailer delivers a fully-assembled parameter map through one of the two
// registered provider templates. Implementations can be swapped (SendGrid,
// SES, stub) without changing the dispatcher.
type Mailer interface {
	Send(ctx context.Context, templateID string, to Recipient, params Params) error
}

// SendGridMailer delivers through SendGrid dynamic templates.
type SendGridMailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridMailerConfig holds configuration for SendGrid delivery.
type SendGridMailerConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridMailer creates a SendGrid mailer. Returns nil when the API key
// is absent so callers can fall back to the stub.
func NewSendGridMailer(cfg SendGridMailerConfig, logger *logging.Logger) *SendGridMailer {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "MediBook Clinic"
	}
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send delivers the params through the given dynamic template.
func (m *SendGridMailer) Send(ctx context.Context, templateID string, to Recipient, params Params) error {
	if m.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(m.fromName, m.fromEmail))
	message.SetTemplateID(templateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(to.Name, to.Email))
	for key, value := range params {
		p.SetDynamicTemplateData(key, value)
	}
	message.AddPersonalizations(p)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		m.logger.Error("sendgrid send failed", "error", err, "template_id", templateID)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		m.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "template_id", templateID)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	m.logger.Info("email sent via sendgrid", "template_id", templateID, "status", response.StatusCode)
	return nil
}

// SESMailer delivers through AWS SES v2 stored templates.
type SESMailer struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SESMailerConfig holds configuration for SES delivery.
type SESMailerConfig struct {
	FromEmail string
	FromName  string
}

// NewSESMailer creates an SES mailer. Returns nil when the client is absent.
func NewSESMailer(client *sesv2.Client, cfg SESMailerConfig, logger *logging.Logger) *SESMailer {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "MediBook Clinic"
	}
	return &SESMailer{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send renders the stored SES template with the param map as template data.
func (m *SESMailer) Send(ctx context.Context, templateID string, to Recipient, params Params) error {
	if m.client == nil {
		return fmt.Errorf("notify: SES client not configured")
	}

	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("notify: marshal template data: %w", err)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{to.Email},
		},
		Content: &types.EmailContent{
			Template: &types.Template{
				TemplateName: aws.String(templateID),
				TemplateData: aws.String(string(data)),
			},
		},
	}

	output, err := m.client.SendEmail(ctx, input)
	if err != nil {
		m.logger.Error("SES send failed", "error", err, "template_id", templateID)
		return fmt.Errorf("notify: SES send failed: %w", err)
	}

	m.logger.Info("email sent via SES", "template_id", templateID, "message_id", aws.ToString(output.MessageId))
	return nil
}

// StubMailer records sends without delivering anything. Used in tests and
// when email delivery is disabled.
type StubMailer struct {
	logger *logging.Logger
}

// NewStubMailer creates a stub mailer that logs but doesn't send.
func NewStubMailer(logger *logging.Logger) *StubMailer {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubMailer{logger: logger}
}

// Send logs the send but does nothing.
func (m *StubMailer) Send(ctx context.Context, templateID string, to Recipient, params Params) error {
	m.logger.Info("stub mailer: would send email", "template_id", templateID, "to", maskEmail(to.Email))
	return nil
}

// Ensure interface compliance
var _ Mailer = (*SendGridMailer)(nil)
var _ Mailer = (*SESMailer)(nil)
var _ Mailer = (*StubMailer)(nil)
