package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewClientRequiresSpreadsheetID(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet ID")
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Run("inline JSON wins", func(t *testing.T) {
		got, err := loadCredentials(Config{
			CredentialsJSON: `{"type":"service_account"}`,
			CredentialsFile: "/does/not/exist",
		})
		if err != nil {
			t.Fatalf("loadCredentials: %v", err)
		}
		if string(got) != `{"type":"service_account"}` {
			t.Fatalf("unexpected credentials: %s", got)
		}
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "creds.json")
		if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0600); err != nil {
			t.Fatalf("write temp file: %v", err)
		}

		got, err := loadCredentials(Config{CredentialsFile: path})
		if err != nil {
			t.Fatalf("loadCredentials: %v", err)
		}
		if len(got) == 0 {
			t.Fatal("expected file contents")
		}
	})

	t.Run("missing both", func(t *testing.T) {
		if _, err := loadCredentials(Config{}); err == nil {
			t.Fatal("expected error when no credentials are configured")
		}
	})
}
