package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// TelegramSender uploads the bundle file to a chat via the Bot API.
type TelegramSender struct {
	apiBase string
	token   string
	chatID  string
	client  *http.Client
}

var _ DirectSenderInterface = (*TelegramSender)(nil)

// NewTelegramSender registers bot token and chat identifier. apiBase is
// normally https://api.telegram.org; tests point it at a local server.
func NewTelegramSender(apiBase, token, chatID string, client *http.Client) *TelegramSender {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &TelegramSender{
		apiBase: apiBase,
		token:   token,
		chatID:  chatID,
		client:  client,
	}
}

// SendDocument uploads the file with sendDocument as a multipart form.
func (t *TelegramSender) SendDocument(ctx context.Context, bundlePath, filename string) error {
	if t.token == "" || t.chatID == "" {
		return fmt.Errorf("telegram sender misconfigured")
	}

	file, err := os.Open(bundlePath)
	if err != nil {
		return fmt.Errorf("failed to open bundle: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", t.chatID); err != nil {
		return fmt.Errorf("failed to write form field: %w", err)
	}

	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy bundle into form: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendDocument", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
