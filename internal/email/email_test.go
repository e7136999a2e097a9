package email

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func testConfig() *SMTPConfig {
	return &SMTPConfig{Host: "smtp.test", Port: 2525, FromEmail: "hello@natours.io", FromName: "Natours"}
}

func TestTemplateManager_RendersBuiltins(t *testing.T) {
	tm, err := NewTemplateManager()
	require.NoError(t, err)

	out, err := tm.Render(TemplatePasswordReset, Message{Name: "Laura", URL: "http://x/reset/abc"}.templateData())
	require.NoError(t, err)
	assert.Contains(t, out, "Hi Laura,")
	assert.Contains(t, out, `href="http://x/reset/abc"`)

	_, err = tm.Render("missing", nil)
	assert.Error(t, err)
}

func TestHTMLToText(t *testing.T) {
	in := `<html><head><style>p{color:red}</style></head><body><p>Hi &amp; welcome</p><p><a href="http://x">Go</a></p></body></html>`
	assert.Equal(t, "Hi & welcome\nGo [http://x]", HTMLToText(in))
}

func TestSMTPConfig_From(t *testing.T) {
	assert.Equal(t, "Natours <hello@natours.io>", testConfig().From())
	assert.Error(t, (&SMTPConfig{Port: 25}).Validate())
}

func TestSMTPMailer_SendsHTMLAndText(t *testing.T) {
	tm, err := NewTemplateManager()
	require.NoError(t, err)
	fs := &fakeSender{}
	m := newSMTPMailer(testConfig(), tm, fs, DefaultBreakerConfig())

	err = m.SendTemplatedEmail(context.Background(), Message{
		To:       "laura@example.com",
		Name:     "Laura",
		Subject:  "Welcome to the Natours Family!",
		Template: TemplateWelcome,
		URL:      "http://localhost:3000/me",
	})
	require.NoError(t, err)
	require.Len(t, fs.sent, 1)

	var buf bytes.Buffer
	_, err = fs.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "laura@example.com")
	assert.Contains(t, raw, "Subject: Welcome to the Natours Family!")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "text/html")
}

func TestSMTPMailer_BreakerOpensAfterFailures(t *testing.T) {
	tm, err := NewTemplateManager()
	require.NoError(t, err)
	fs := &fakeSender{err: errors.New("connection refused")}
	m := newSMTPMailer(testConfig(), tm, fs, BreakerConfig{FailureThreshold: 2, Timeout: time.Minute})

	msg := Message{To: "a@b.io", Template: TemplateWelcome}
	assert.Error(t, m.SendTemplatedEmail(context.Background(), msg))
	assert.Error(t, m.SendTemplatedEmail(context.Background(), msg))

	err = m.SendTemplatedEmail(context.Background(), msg)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, "open", m.State())
}

func TestLogMailer_ValidatesTemplate(t *testing.T) {
	tm, err := NewTemplateManager()
	require.NoError(t, err)
	m := NewLogMailer(tm)

	assert.NoError(t, m.SendTemplatedEmail(context.Background(), Message{Template: TemplateWelcome}))
	assert.Error(t, m.SendTemplatedEmail(context.Background(), Message{Template: "nope"}))
}
