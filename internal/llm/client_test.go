package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dregen-Yor/auto-invoice/internal/common"
	"github.com/Dregen-Yor/auto-invoice/internal/entity"
)

func newTestClient() *Client {
	return NewClient(5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serviceConfig(baseURL string) entity.ServiceConfig {
	return entity.ServiceConfig{BaseURL: baseURL, APIKey: "sk-test", Model: "gpt-4o-mini"}
}

func TestStructureText(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"type\":\"inter-city\",\"amount\":553.5}"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient()
	content, err := c.Structure(context.Background(), serviceConfig(srv.URL+"/v1"), TextContent("高铁票 553.50元"))
	require.NoError(t, err)

	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.Contains(t, content, `"type":"inter-city"`)

	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 1)
	prompt := messages[0].(map[string]any)["content"].(string)
	assert.Contains(t, prompt, "高铁票 553.50元")
	assert.Contains(t, prompt, `"inter-city"`)
}

func TestStructureImagePayload(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"type\":\"accommodation\",\"amount\":100}"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient()
	_, err := c.Structure(context.Background(), serviceConfig(srv.URL), ImageContent([]byte("pngbytes"), "image/png"))
	require.NoError(t, err)

	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 1)
	parts := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)

	textPart := parts[0].(map[string]any)
	assert.Equal(t, "text", textPart["type"])

	imagePart := parts[1].(map[string]any)
	assert.Equal(t, "image_url", imagePart["type"])
	url := imagePart["image_url"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func TestStructureTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient()
	_, err := c.Structure(context.Background(), serviceConfig(srv.URL), TextContent("text"))
	require.Error(t, err)

	var terr *common.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusInternalServerError, terr.Status)
	assert.Contains(t, terr.Body, "upstream exploded")
}

func TestStructureImageRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"This model does not support image input"}}`))
	}))
	defer srv.Close()

	c := newTestClient()
	_, err := c.Structure(context.Background(), serviceConfig(srv.URL), ImageContent([]byte("png"), "image/png"))
	assert.ErrorIs(t, err, common.ErrImageNotSupported)
}

func TestStructureImageRejectionTextModeStaysTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`image mention in an unrelated text-mode failure: unsupported`))
	}))
	defer srv.Close()

	c := newTestClient()
	_, err := c.Structure(context.Background(), serviceConfig(srv.URL), TextContent("text"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrImageNotSupported))

	var terr *common.TransportError
	assert.True(t, errors.As(err, &terr))
}

func TestStructureNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient()
	_, err := c.Structure(context.Background(), serviceConfig(srv.URL), TextContent("text"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no textual content")
}
