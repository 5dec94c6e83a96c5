// Package mail sends HTML email over SMTP and composes welcome messages.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Sender delivers one HTML message and reports whether it was accepted.
type Sender interface {
	Send(to, subject, htmlBody string) bool
}

// SMTPMailer sends mail through an authenticated SMTP relay.
// A zero-value host disables sending.
type SMTPMailer struct {
	host     string
	port     int
	user     string
	password string
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer returns a mailer for host:port. When any credential is
// missing the mailer is disabled and Send always reports false.
func NewSMTPMailer(host string, port int, user, password string) *SMTPMailer {
	if host == "" || user == "" || password == "" {
		logrus.Warn("Email environment variables are not set. Email functionality will be disabled.")
		return &SMTPMailer{}
	}
	return &SMTPMailer{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		sendMail: smtp.SendMail,
	}
}

// Enabled reports whether the mailer has a relay configured.
func (m *SMTPMailer) Enabled() bool {
	return m.host != ""
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) bool {
	if !m.Enabled() {
		logrus.WithField("to", to).Error("Email transporter is not configured. Cannot send email.")
		return false
	}

	msg := "From: \"Campus Cruiser\" <" + m.user + ">\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + sanitizeHeader(subject) + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" + htmlBody

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := m.sendMail(addr, auth, m.user, []string{to}, []byte(msg)); err != nil {
		logrus.WithError(err).WithField("to", to).Error("Error sending email")
		return false
	}
	logrus.WithField("to", to).Info("Email sent successfully")
	return true
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
