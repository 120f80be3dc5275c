package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"homehub/config"
	"homehub/utils"

	"go.uber.org/zap"
)

// WhatsAppSender delivers a text message to a phone number.
type WhatsAppSender interface {
	Send(ctx context.Context, phone, message string) error
}

// HTTPWhatsApp posts messages to a WhatsApp business messaging API.
type HTTPWhatsApp struct {
	endpoint string
	token    string
	sender   string
	client   *http.Client
}

type whatsAppMessage struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewHTTPWhatsApp builds a sender from the WHATSAPP_* settings.
func NewHTTPWhatsApp(cfg config.Config) *HTTPWhatsApp {
	return &HTTPWhatsApp{
		endpoint: cfg.WhatsAppAPIURL,
		token:    cfg.WhatsAppToken,
		sender:   cfg.WhatsAppSender,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *HTTPWhatsApp) Send(ctx context.Context, phone, message string) error {
	phone = normalizePhone(phone)
	if phone == "" {
		return nil
	}
	if w.endpoint == "" {
		utils.GetLogger().Debug("WhatsApp not configured, skipping message", zap.String("to", phone))
		return nil
	}

	payload, err := json.Marshal(whatsAppMessage{From: w.sender, To: phone, Type: "text", Message: message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build WhatsApp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("WhatsApp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("WhatsApp API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// normalizePhone strips spaces and dashes and keeps a leading +.
func normalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
