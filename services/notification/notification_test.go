package notification

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"homehub/config"
	"homehub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct{ to, subject, body string }

type recordingEmail struct {
	sent []sentMail
	err  error
}

func (r *recordingEmail) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return nil
	}
	r.sent = append(r.sent, sentMail{to, subject, body})
	return r.err
}

type recordingWhatsApp struct {
	to []string
}

func (r *recordingWhatsApp) Send(ctx context.Context, phone, message string) error {
	if phone != "" {
		r.to = append(r.to, phone)
	}
	return nil
}

func TestNotifyBookingCreatedReachesBothParties(t *testing.T) {
	email := &recordingEmail{}
	wa := &recordingWhatsApp{}
	svc := NewDefaultNotificationService(email, wa)

	err := svc.NotifyBookingCreated(context.Background(), models.BookingNotification{
		ServiceTitle: "Deep cleaning",
		Date:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		SeekerName:   "Abebe",
		SeekerEmail:  "abebe@example.com",
		SeekerPhone:  "+251911000000",
		ProviderName: "Sparkle Co",
		ProviderMail: "sparkle@example.com",
	})
	require.NoError(t, err)

	require.Len(t, email.sent, 2)
	assert.Equal(t, "abebe@example.com", email.sent[0].to)
	assert.Contains(t, email.sent[0].body, "Mon, 02 Mar 2026")
	assert.Equal(t, "sparkle@example.com", email.sent[1].to)
	assert.Contains(t, email.sent[1].body, "+251911000000")
	assert.Equal(t, []string{"+251911000000"}, wa.to)
}

func TestNotifyBookingCreatedJoinsErrors(t *testing.T) {
	email := &recordingEmail{err: errors.New("smtp down")}
	svc := NewDefaultNotificationService(email, &recordingWhatsApp{})

	err := svc.NotifyBookingCreated(context.Background(), models.BookingNotification{
		SeekerEmail:  "a@example.com",
		ProviderMail: "b@example.com",
	})
	assert.ErrorContains(t, err, "smtp down")
	assert.Len(t, email.sent, 2)
}

func TestApplicationDecisionSkipsPending(t *testing.T) {
	email := &recordingEmail{}
	svc := NewDefaultNotificationService(email, &recordingWhatsApp{})

	require.NoError(t, svc.NotifyApplicationDecision(context.Background(), models.DecisionNotice{
		Email: "x@example.com", Decision: models.DecisionPending,
	}))
	assert.Empty(t, email.sent)

	require.NoError(t, svc.NotifyApplicationDecision(context.Background(), models.DecisionNotice{
		Programme: "Women Initiative", Name: "Hana", Email: "hana@example.com",
		Decision: models.DecisionApproved, Note: "Welcome aboard",
	}))
	require.Len(t, email.sent, 1)
	assert.Contains(t, email.sent[0].body, "approved")
	assert.Contains(t, email.sent[0].body, "Welcome aboard")
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	s := NewSMTPSender(config.Config{SMTPHost: "smtp.example.com", SMTPPort: "587", SMTPUsername: "bot@example.com", SMTPPassword: `"pw"`})

	var gotAddr string
	var gotMsg []byte
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotMsg = msg
		return nil
	}

	require.NoError(t, s.Send(context.Background(), "user@example.com", "Hello", "Body text"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "pw", s.password)
	msg := string(gotMsg)
	assert.True(t, strings.HasPrefix(msg, "From: HomeHub <bot@example.com>\r\n"))
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nBody text"))
}

func TestSMTPSenderKeepsSubjectOnOneHeader(t *testing.T) {
	subject := "New booking: Deep cleaning\r\nContent-Type: text/html\r\nX-Injected: yes"
	msg := string(buildMessage("bot@example.com", "user@example.com\r\nBcc: evil@example.com", subject, "Body text"))

	headers, body, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found)
	assert.Equal(t, "Body text", body)

	lines := strings.Split(headers, "\r\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "To: user@example.comBcc: evil@example.com", lines[1])
	assert.NotContains(t, headers, "\r\nX-Injected")
	assert.Equal(t, `Content-Type: text/plain; charset="UTF-8"`, lines[4])

	raw := strings.TrimPrefix(lines[2], "Subject: ")
	decoded, err := new(mime.WordDecoder).DecodeHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, subject, decoded)
}

func TestSMTPSenderEncodesNonASCIISubject(t *testing.T) {
	msg := string(buildMessage("bot@example.com", "user@example.com", "Karibu Zoë", "b"))
	assert.Contains(t, msg, "Subject: =?utf-8?q?Karibu_Zo=C3=AB?=\r\n")
}

func TestSMTPSenderUnconfiguredIsNoop(t *testing.T) {
	s := NewSMTPSender(config.Config{})
	called := false
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}
	require.NoError(t, s.Send(context.Background(), "user@example.com", "s", "b"))
	assert.False(t, called)
}

func TestHTTPWhatsAppPostsJSON(t *testing.T) {
	var got whatsAppMessage
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	wa := NewHTTPWhatsApp(config.Config{WhatsAppAPIURL: srv.URL, WhatsAppToken: "tok", WhatsAppSender: "+1555"})
	require.NoError(t, wa.Send(context.Background(), "+251 911-000 000", "hi"))

	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "+251911000000", got.To)
	assert.Equal(t, "+1555", got.From)
	assert.Equal(t, "hi", got.Message)
}

func TestHTTPWhatsAppReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad number", http.StatusBadRequest)
	}))
	defer srv.Close()

	wa := NewHTTPWhatsApp(config.Config{WhatsAppAPIURL: srv.URL})
	err := wa.Send(context.Background(), "+251911000000", "hi")
	assert.ErrorContains(t, err, "400")
}
