package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/playsevenate9/backend/internal/config"
)

// HTTPProvider asks a remote strategy service for moves
type HTTPProvider struct {
	url        string
	httpClient *http.Client
}

// NewHTTPProvider returns nil when no provider URL is configured
func NewHTTPProvider(cfg *config.Config) *HTTPProvider {
	if cfg == nil || cfg.AIProviderURL == "" {
		log.Printf("[AI] No strategy provider configured - bots use the local strategy")
		return nil
	}
	timeout := time.Duration(cfg.AIProviderTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		url:        strings.TrimRight(cfg.AIProviderURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Decide posts the request and decodes the provider's decision
func (p *HTTPProvider) Decide(ctx context.Context, req Request) (Decision, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Decision{}, fmt.Errorf("encode ai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to create ai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Decision{}, fmt.Errorf("ai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Decision{}, fmt.Errorf("ai provider returned status %d: %s", resp.StatusCode, string(b))
	}

	var dec Decision
	if err := json.NewDecoder(resp.Body).Decode(&dec); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}
	return dec, nil
}
