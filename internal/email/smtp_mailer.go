package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"natours_backend/internal/logger"
	"natours_backend/internal/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
	"gopkg.in/gomail.v2"
)

// BreakerConfig - параметры размыкателя SMTP
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
	Interval         time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		Interval:         time.Minute,
	}
}

// sender - отправка одного готового сообщения (gomail.Dialer в проде)
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer отправляет письма через gomail. Подряд идущие ошибки SMTP
// размыкают цепь, и следующие письма сразу получают ошибку.
type SMTPMailer struct {
	config   *SMTPConfig
	renderer TemplateRenderer
	dialer   sender
	breaker  *gobreaker.CircuitBreaker[struct{}]
}

func NewSMTPMailer(cfg *SMTPConfig, renderer TemplateRenderer, bc BreakerConfig) (*SMTPMailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.UseTLS {
		d.SSL = cfg.Port == 465
		d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}

	return newSMTPMailer(cfg, renderer, d, bc), nil
}

func newSMTPMailer(cfg *SMTPConfig, renderer TemplateRenderer, d sender, bc BreakerConfig) *SMTPMailer {
	settings := gobreaker.Settings{
		Name:     "smtp",
		Interval: bc.Interval,
		Timeout:  bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordBreakerTransition(name, from, to)
		},
	}

	return &SMTPMailer{
		config:   cfg,
		renderer: renderer,
		dialer:   d,
		breaker:  gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// SendTemplatedEmail рендерит шаблон и отправляет html + текстовую версию
func (m *SMTPMailer) SendTemplatedEmail(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	htmlBody, err := m.renderer.Render(msg.Template, msg.templateData())
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.config.From())
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", HTMLToText(htmlBody))
	gm.AddAlternative("text/html", htmlBody)

	_, err = m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.dialer.DialAndSend(gm)
	})
	metrics.RecordEmail(msg.Template, err)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to send email", err, "template", msg.Template, "breaker", m.breaker.State().String())
		return fmt.Errorf("send %s email: %w", msg.Template, err)
	}

	logger.CtxInfo(ctx, "Email sent", "template", msg.Template)
	return nil
}

// State - состояние размыкателя для health/метрик
func (m *SMTPMailer) State() string {
	return m.breaker.State().String()
}
