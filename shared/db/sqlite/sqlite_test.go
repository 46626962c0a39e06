package sqlite

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewSQLiteConfig(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     string
	}{
		{
			name:     "env variable",
			envValue: "/tmp/env.db",
			want:     "/tmp/env.db",
		},
		{
			name: "default path",
			want: "./catalog.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("CATALOG_DB_PATH", tt.envValue)
				defer os.Unsetenv("CATALOG_DB_PATH")
			} else {
				os.Unsetenv("CATALOG_DB_PATH")
			}

			cfg := NewSQLiteConfig()
			if cfg.Path != tt.want {
				t.Errorf("Path = %v, want %v", cfg.Path, tt.want)
			}
		})
	}
}

func TestSQLiteDB_Connect(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "connect.db")

	database := NewSQLiteDB(&SQLiteConfig{Path: dbPath})
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close()

	if database.DB() == nil {
		t.Error("DB() returned nil after Connect")
	}

	if err := database.Connect(); err == nil {
		t.Error("second Connect() did not error")
	}
}

func TestSQLiteDB_CloseIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "close.db")

	database := NewSQLiteDB(&SQLiteConfig{Path: dbPath})
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := database.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := database.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
