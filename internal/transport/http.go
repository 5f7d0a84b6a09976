package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// HTTPCallback delivers messages by POSTing JSON to an external gateway
// that owns the actual chat connection.
type HTTPCallback struct {
	url    string
	token  string
	client *http.Client
}

// NewHTTPCallback creates a callback transport targeting the given URL.
func NewHTTPCallback(url, token string) *HTTPCallback {
	return &HTTPCallback{
		url:   url,
		token: token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

var _ Transport = (*HTTPCallback)(nil)

type outboundMessage struct {
	UserID   int64  `json:"user_id"`
	Text     string `json:"text,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileData string `json:"file_data,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

func (t *HTTPCallback) SendMessage(ctx context.Context, userID int64, text string) error {
	return t.post(ctx, outboundMessage{UserID: userID, Text: text})
}

func (t *HTTPCallback) SendDocument(ctx context.Context, userID int64, path, caption string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	return t.post(ctx, outboundMessage{
		UserID:   userID,
		FileName: filepath.Base(path),
		FileData: base64.StdEncoding.EncodeToString(data),
		Caption:  caption,
	})
}

func (t *HTTPCallback) post(ctx context.Context, msg outboundMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}
