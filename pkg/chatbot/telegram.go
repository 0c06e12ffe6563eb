// Package chatbot posts operational alerts to a Telegram bot chat.
// Strictly fire-and-forget: nothing settlement depends on travels this way.
package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Sender interface {
	Send(ctx context.Context, text string) error
}

type TelegramSender struct {
	BaseURL string
	Token   string
	ChatID  string
	client  *http.Client
}

func NewTelegramSender(baseURL, token, chatID string) *TelegramSender {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &TelegramSender{
		BaseURL: baseURL,
		Token:   token,
		ChatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageReq struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (t *TelegramSender) Send(ctx context.Context, text string) error {
	if t.Token == "" || t.ChatID == "" {
		return nil
	}
	body, _ := json.Marshal(sendMessageReq{ChatID: t.ChatID, Text: text})
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram sendMessage: %d", resp.StatusCode)
	}
	return nil
}

// NopSender discards alerts; used when no bot is configured.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, text string) error { return nil }
