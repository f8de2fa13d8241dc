package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edudesk/portal/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := &core.Config{AppName: "EduDesk", DefaultFromEmail: "noreply@edudesk.test"}
	svc := NewConsoleServiceMock(conf, nopLogger{})

	welcome := &core.EmailMessage{
		To:           []mail.Address{{Name: "Jane", Address: "jane@school.test"}},
		Subject:      "Your account",
		TemplateName: "tutor_welcome",
		TemplateData: map[string]string{
			"Name":       "Jane",
			"SchoolName": "Green Hill",
			"Email":      "jane@school.test",
			"Password":   "Xy7-pq",
		},
	}
	noRecipient := &core.EmailMessage{Subject: "lost", BodyStr: "nobody reads this"}
	svc.SendMessages(welcome, noRecipient)

	sent := svc.SentMessages()
	if assert.Len(t, sent, 1) {
		assert.Contains(t, sent[0].TextContent, "Temporary password: Xy7-pq")
		assert.Contains(t, sent[0].TextContent, "Green Hill")
		assert.Contains(t, sent[0].HTMLContent, "Xy7-pq")
	}
}

func TestNewService(t *testing.T) {
	conf := &core.Config{AppName: "EduDesk", Debug: true, SendgridApiKey: "key"}
	assert.IsType(t, &consoleService{}, NewService(conf, nopLogger{}))

	conf.Debug = false
	assert.IsType(t, &sendgridService{}, NewService(conf, nopLogger{}))
}
