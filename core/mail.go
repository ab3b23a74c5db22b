package core

import (
	"bytes"
	htmltemplate "html/template"
	"net/mail"
	"text/template"
)

type (
	EmailMessage struct {
		To       []mail.Address
		Subject  string
		Category string // provider-side tag, e.g. "invite"

		// templated content; each template renders into its content field
		Template     *template.Template
		HTMLTemplate *htmltemplate.Template
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render executes the message templates (if any) into TextContent and HTMLContent.
func (m *EmailMessage) Render() error {
	if m.Template != nil {
		var buff bytes.Buffer
		if err := m.Template.Execute(&buff, m.TemplateData); err != nil {
			return err
		}
		m.TextContent = buff.String()
	}
	if m.HTMLTemplate != nil {
		var buff bytes.Buffer
		if err := m.HTMLTemplate.Execute(&buff, m.TemplateData); err != nil {
			return err
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != ""
}
