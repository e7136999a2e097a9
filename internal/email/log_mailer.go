package email

import (
	"context"

	"natours_backend/internal/logger"
)

// LogMailer - без SMTP письма только пишутся в лог (dev, тесты)
type LogMailer struct {
	renderer TemplateRenderer
}

func NewLogMailer(renderer TemplateRenderer) *LogMailer {
	return &LogMailer{renderer: renderer}
}

func (m *LogMailer) SendTemplatedEmail(ctx context.Context, msg Message) error {
	if m.renderer != nil {
		if _, err := m.renderer.Render(msg.Template, msg.templateData()); err != nil {
			return err
		}
	}
	logger.CtxInfo(ctx, "Email not sent: SMTP is not configured",
		"template", msg.Template,
		"subject", msg.Subject,
		"url", msg.URL,
	)
	return nil
}
