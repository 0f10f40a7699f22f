// Package tests contains helpers for the route tests.
package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deft-reversi/deft/internal"
	"github.com/deft-reversi/deft/internal/config"
	"github.com/deft-reversi/deft/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const (
	TestToken    = "test-token"
	TestUser     = "admin"
	TestPassword = "secret"
	IndexHTML    = "<html><body>deft</body></html>"
)

// Config returns a configuration without external services and with a static dir holding index.html.
func Config(t *testing.T) *config.ServerConfig {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(IndexHTML), 0o600))

	return &config.ServerConfig{
		ServerHost:        "localhost",
		ServerPort:        "0",
		BasicAuthUsername: TestUser,
		BasicAuthPassword: TestPassword,
		Token:             TestToken,
		StaticDir:         dir,
		SessionTTL:        time.Hour,
		AIMoveTimeout:     time.Second,
		DefaultLevel:      1,
	}
}

// NewApp builds the app for cfg with in-memory sessions and no archive.
func NewApp(t *testing.T, cfg *config.ServerConfig) *fiber.App {
	t.Helper()

	return internal.BuildApp(cfg, &services.Services{})
}

// Do sends a request with an optional JSON body to app.
func Do(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = resp.Body.Close()
	})

	return resp
}

// Decode reads the JSON body of resp into target.
func Decode(t *testing.T, resp *http.Response, target any) {
	t.Helper()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
