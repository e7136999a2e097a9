package email

import "context"

// Mailer отправляет письма по шаблонам
type Mailer interface {
	SendTemplatedEmail(ctx context.Context, msg Message) error
}

// TemplateRenderer рендерит html-шаблоны писем
type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
}
