package email

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

var ErrNoRecipients = errors.New("no_recipients")

type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
	SendTemplate(ctx context.Context, to []string, templateName string, data map[string]any) error
}

// NoOpProvider logs instead of delivering. It is used when SMTP is not configured.
type NoOpProvider struct {
	log *zap.Logger
}

func NewNoOp(log *zap.Logger) *NoOpProvider {
	return &NoOpProvider{log: log.Named("email.noop")}
}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	if len(to) == 0 {
		return ErrNoRecipients
	}
	p.log.Info("email delivery skipped", zap.Int("recipients", len(to)), zap.String("subject", subject))
	return nil
}

func (p *NoOpProvider) SendTemplate(ctx context.Context, to []string, templateName string, data map[string]any) error {
	subject, body, err := render(templateName, data)
	if err != nil {
		return err
	}
	return p.Send(ctx, to, subject, body)
}
