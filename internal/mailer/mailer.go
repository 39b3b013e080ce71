package mailer

import (
	"bytes"
	"embed"
	"text/template"
	"time"

	mail "github.com/go-mail/mail/v2"
)

//go:embed templates
var templateFS embed.FS

type Mailer interface {
	Send(recipient, templateFile string, data any) error
}

type SMTPMailer struct {
	dialer *mail.Dialer
	sender string
}

func NewSMTPMailer(host string, port int, username, password, sender string) *SMTPMailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second

	return &SMTPMailer{
		dialer: dialer,
		sender: sender,
	}
}

func (m *SMTPMailer) Send(recipient, templateFile string, data any) error {
	subject, plainBody, err := render(templateFile, data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", recipient)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plainBody)

	return m.dialer.DialAndSend(msg)
}

func render(templateFile string, data any) (subject, plainBody string, err error) {
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return "", "", err
	}

	subjectBuf := new(bytes.Buffer)
	err = tmpl.ExecuteTemplate(subjectBuf, "subject", data)
	if err != nil {
		return "", "", err
	}

	bodyBuf := new(bytes.Buffer)
	err = tmpl.ExecuteTemplate(bodyBuf, "plainBody", data)
	if err != nil {
		return "", "", err
	}

	return subjectBuf.String(), bodyBuf.String(), nil
}
