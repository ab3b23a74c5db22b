package emailsvc

import (
	"net/mail"
	htmltemplate "html/template"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infort/rh/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestConsoleServiceMock(t *testing.T) {
	conf := &core.Config{AppName: "InFort RH", DefaultFromEmail: mail.Address{Name: "InFort RH", Address: "noreply@infort.test"}}
	svc := NewConsoleServiceMock(conf, nopLogger{})

	tmpl := template.Must(template.New("t").Parse("Olá {{.}}"))
	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "ana@infort.test"}}, Subject: "s", Template: tmpl, TemplateData: "Ana"},
		&core.EmailMessage{Subject: "no recipients", TextContent: "x"},
		&core.EmailMessage{To: []mail.Address{{Address: "bob@infort.test"}}, Subject: "no content"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Olá Ana", sent[0].TextContent)

	raw := svc.format(sent[0])
	assert.Contains(t, raw, "Subject: [InFort RH] s")
	assert.Contains(t, raw, "To: <ana@infort.test>")
	assert.Contains(t, raw, "Content-Type: text/plain")
	assert.NotContains(t, raw, "multipart/alternative")
}

func TestConsoleService_htmlAlternative(t *testing.T) {
	conf := &core.Config{AppName: "InFort RH", DefaultFromEmail: mail.Address{Name: "InFort RH", Address: "noreply@infort.test"}}
	svc := NewConsoleServiceMock(conf, nopLogger{})

	svc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: "ana@infort.test"}},
		Subject:      "convite",
		Template:     template.Must(template.New("t").Parse("Olá {{.}}")),
		HTMLTemplate: htmltemplate.Must(htmltemplate.New("h").Parse("<p>Olá {{.}}</p>")),
		TemplateData: "<Ana>",
	})

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Olá <Ana>", sent[0].TextContent)
	assert.Equal(t, "<p>Olá &lt;Ana&gt;</p>", sent[0].HTMLContent, "html is escaped")

	raw := svc.format(sent[0])
	assert.Contains(t, raw, `multipart/alternative; boundary="infort-rh-alt"`)
	assert.Contains(t, raw, "Content-Type: text/html; charset=utf-8\r\n\r\n<p>Olá &lt;Ana&gt;</p>")
	assert.Contains(t, raw, "--infort-rh-alt--")
}

func TestSendgridPrepare(t *testing.T) {
	conf := &core.Config{AppName: "InFort RH", DefaultFromEmail: mail.Address{Name: "InFort RH", Address: "noreply@infort.test"}}
	svc := NewSendgridService(conf, nopLogger{}).(*sendgridService)

	m := svc.prepare(core.EmailMessage{To: []mail.Address{{Name: "Ana", Address: "ana@infort.test"}}, Subject: "Oi", TextContent: "corpo"})
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[InFort RH] Oi", m.Personalizations[0].Subject)
	assert.Equal(t, "ana@infort.test", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "noreply@infort.test", m.From.Address)
	assert.Equal(t, "corpo", m.Content[0].Value)
	assert.Len(t, m.Content, 1, "no empty html part")
	assert.Empty(t, m.Categories)
}

func TestSendgridPrepare_invite(t *testing.T) {
	conf := &core.Config{AppName: "InFort RH", DefaultFromEmail: mail.Address{Name: "InFort RH", Address: "noreply@infort.test"}}
	svc := NewSendgridService(conf, nopLogger{}).(*sendgridService)

	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Address: "ana@infort.test"}, {Address: "bruno@infort.test"}},
		Subject:     "Defina sua senha",
		Category:    "invite",
		TextContent: "texto",
		HTMLContent: "<p>html</p>",
	})
	require.Len(t, m.Personalizations, 2, "one per recipient")
	for i, addr := range []string{"ana@infort.test", "bruno@infort.test"} {
		require.Len(t, m.Personalizations[i].To, 1)
		assert.Equal(t, addr, m.Personalizations[i].To[0].Address)
		assert.Equal(t, "[InFort RH] Defina sua senha", m.Personalizations[i].Subject)
	}
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
	assert.Equal(t, []string{"invite"}, m.Categories)
}
