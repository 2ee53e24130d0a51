package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WhatsAppSender delivers messages through the WhatsApp Cloud API.
type WhatsAppSender struct {
	token   string
	phoneID string
	client  *http.Client
}

func NewWhatsAppSender(token, phoneID string) *WhatsAppSender {
	return &WhatsAppSender{
		token:   token,
		phoneID: phoneID,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type whatsAppTextPayload struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

type whatsAppText struct {
	Body string `json:"body"`
}

func (s *WhatsAppSender) Send(ctx context.Context, recipient, message string) error {
	payload, err := json.Marshal(whatsAppTextPayload{
		MessagingProduct: "whatsapp",
		To:               recipient,
		Type:             "text",
		Text:             whatsAppText{Body: message},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("https://graph.facebook.com/v19.0/%s/messages", s.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("whatsapp send failed: status %d: %s", res.StatusCode, body)
	}
	return nil
}
