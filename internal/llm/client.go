package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dregen-Yor/auto-invoice/internal/common"
	"github.com/Dregen-Yor/auto-invoice/internal/entity"
)

// Client talks to a chat-completion style structuring endpoint. The base
// address, credential, and model identifier come from the user-editable
// service configuration and are passed per call.
type Client struct {
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		log:        logger,
	}
}

// Structure sends one structuring request and returns the resolved textual
// content of the reply.
func (c *Client) Structure(ctx context.Context, cfg entity.ServiceConfig, content Content) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()
	mode := "text"
	if content.IsImage() {
		mode = "vision"
	}

	c.log.Info("llm.structure.start",
		"req_id", rid,
		"model", cfg.Model,
		"mode", mode,
		"text_len", len(content.Text),
		"image_bytes", len(content.Image),
	)

	body := map[string]any{
		"model":    cfg.Model,
		"messages": []map[string]any{buildMessage(content)},
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + cfg.APIKey}

	raw, status, err := sendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.structure.send_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("send structuring request: %w", err)
	}
	if status/100 != 2 {
		terr := classifyTransport(status, string(raw), content.IsImage())
		c.log.Error("llm.structure.http_error",
			"req_id", rid, "status", status, "error", terr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", terr
	}

	resolved, err := ResponseContent(raw)
	if err != nil {
		c.log.Error("llm.structure.content_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.log.Info("llm.structure.ok",
		"req_id", rid,
		"content_len", len(resolved),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resolved, nil
}

func buildMessage(content Content) map[string]any {
	if !content.IsImage() {
		return map[string]any{"role": "user", "content": BuildTextPrompt(content.Text)}
	}

	dataURL := "data:" + content.MediaType + ";base64," + base64.StdEncoding.EncodeToString(content.Image)
	return map[string]any{
		"role": "user",
		"content": []map[string]any{
			{"type": "text", "text": BuildVisionPrompt()},
			{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
		},
	}
}

// classifyTransport distinguishes image-rejection replies from plain
// transport failures so the caller can tell the user to supply a PDF or a
// vision-capable model.
func classifyTransport(status int, body string, imageMode bool) error {
	if imageMode && status >= 400 && status < 500 && looksLikeImageRejection(body) {
		return fmt.Errorf("%w: status %d: %s", common.ErrImageNotSupported, status, clip(body, 300))
	}
	return &common.TransportError{Status: status, Body: clip(body, 2048)}
}

func looksLikeImageRejection(body string) bool {
	b := strings.ToLower(body)
	if !strings.Contains(b, "image") && !strings.Contains(b, "vision") && !strings.Contains(b, "multimodal") {
		return false
	}
	for _, hint := range []string{"not support", "unsupported", "unable", "cannot", "invalid content"} {
		if strings.Contains(b, hint) {
			return true
		}
	}
	return false
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
