package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeBundle(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bundle.epub")
	if err := os.WriteFile(path, []byte("epub bytes"), 0o644); err != nil {
		t.Fatalf("Failed to write test bundle: %v", err)
	}
	return path
}

func TestTelegramSender_SendDocument(t *testing.T) {
	var gotPath, gotChatID, gotFilename string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Failed to parse multipart form: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotChatID = r.FormValue("chat_id")

		file, header, err := r.FormFile("document")
		if err != nil {
			t.Errorf("Failed to read document field: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotBody, _ = io.ReadAll(file)

		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	sender := NewTelegramSender(server.URL, "test-token", "12345", server.Client())

	bundle := writeBundle(t)
	if err := sender.SendDocument(context.Background(), bundle, "news_20260830.epub"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if gotPath != "/bottest-token/sendDocument" {
		t.Errorf("Expected sendDocument path, got %s", gotPath)
	}
	if gotChatID != "12345" {
		t.Errorf("Expected chat_id 12345, got %s", gotChatID)
	}
	if gotFilename != "news_20260830.epub" {
		t.Errorf("Expected upload filename, got %s", gotFilename)
	}
	if string(gotBody) != "epub bytes" {
		t.Errorf("Expected bundle contents uploaded, got %q", gotBody)
	}
}

func TestTelegramSender_SendDocument_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	sender := NewTelegramSender(server.URL, "test-token", "12345", server.Client())

	if err := sender.SendDocument(context.Background(), writeBundle(t), "news.epub"); err == nil {
		t.Errorf("Expected error for non-200 response")
	}
}

func TestTelegramSender_SendDocument_MissingBundle(t *testing.T) {
	sender := NewTelegramSender("http://localhost:0", "test-token", "12345", nil)

	if err := sender.SendDocument(context.Background(), "/nonexistent/bundle.epub", "news.epub"); err == nil {
		t.Errorf("Expected error for missing bundle file")
	}
}

func TestTelegramSender_SendDocument_Misconfigured(t *testing.T) {
	sender := NewTelegramSender("http://localhost:0", "", "", nil)

	if err := sender.SendDocument(context.Background(), "/tmp/x.epub", "news.epub"); err == nil {
		t.Errorf("Expected error when token and chat are unset")
	}
}
