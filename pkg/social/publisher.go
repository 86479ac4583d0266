package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/chiecouture/storefront-backend/pkg/config"
	"github.com/chiecouture/storefront-backend/pkg/logger"
)

const (
	postTweetURL   = "https://api.twitter.com/2/tweets"
	requestTimeout = 10 * time.Second
)

// Publisher announces marketplace events on a social channel.
type Publisher interface {
	AnnounceNewStore(ctx context.Context, storeName string) error
	AnnounceNewProduct(ctx context.Context, storeName, productName string) error
}

// XPublisher posts announcements to the X v2 API using OAuth1 user context.
type XPublisher struct {
	client  *http.Client
	postURL string
}

// NewXPublisher builds a publisher from the configured credentials.
func NewXPublisher(cfg config.SocialConfig) (*XPublisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("social credentials are not fully configured")
	}
	oauthCfg := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)
	client := oauthCfg.Client(oauth1.NoContext, token)
	client.Timeout = requestTimeout
	return &XPublisher{client: client, postURL: postTweetURL}, nil
}

func (p *XPublisher) AnnounceNewStore(ctx context.Context, storeName string) error {
	text := fmt.Sprintf("A new store has been added: %s! Check it out now.", storeName)
	return p.post(ctx, text)
}

func (p *XPublisher) AnnounceNewProduct(ctx context.Context, storeName, productName string) error {
	text := fmt.Sprintf("%s just added a new product: %s! Take a look.", storeName, productName)
	return p.post(ctx, text)
}

func (p *XPublisher) post(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal tweet: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.postURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post tweet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("post tweet: status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// NoopPublisher skips announcements. Used when social credentials are absent.
type NoopPublisher struct {
	logg *logger.Logger
}

func NewNoopPublisher(logg *logger.Logger) *NoopPublisher {
	return &NoopPublisher{logg: logg}
}

func (p *NoopPublisher) AnnounceNewStore(ctx context.Context, storeName string) error {
	p.skip(ctx, "store", storeName)
	return nil
}

func (p *NoopPublisher) AnnounceNewProduct(ctx context.Context, storeName, productName string) error {
	p.skip(ctx, "product", productName)
	return nil
}

func (p *NoopPublisher) skip(ctx context.Context, kind, name string) {
	if p.logg == nil {
		return
	}
	ctx = p.logg.WithFields(ctx, map[string]any{"kind": kind, "name": name})
	p.logg.Info(ctx, "social announcement skipped (no credentials)")
}

// FromConfig selects the X publisher when credentials are present and the noop
// publisher otherwise.
func FromConfig(cfg config.SocialConfig, logg *logger.Logger) (Publisher, error) {
	if !cfg.Enabled() {
		return NewNoopPublisher(logg), nil
	}
	return NewXPublisher(cfg)
}
