package onesignal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/repository"
	"NeighborGuard/pkg/zlog"

	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://onesignal.com/api/v1/notifications"
	channelPush     = "push"
	maxErrorBody    = 512
)

var ErrNotConfigured = errors.New("onesignal credentials not configured")

type Config struct {
	AppID    string
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

type client struct {
	cfg  Config
	http *http.Client
}

// NewClient 凭据在构造时注入，客户端本身不读取环境变量
func NewClient(cfg Config, httpClient *http.Client) repository.PushSender {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &client{cfg: cfg, http: httpClient}
}

type content struct {
	En string `json:"en"`
}

type payload struct {
	AppID                     string                 `json:"app_id"`
	Data                      map[string]interface{} `json:"data"`
	TemplateID                string                 `json:"template_id,omitempty"`
	Headings                  *content               `json:"headings,omitempty"`
	Contents                  *content               `json:"contents,omitempty"`
	ChannelForExternalUserIDs string                 `json:"channel_for_external_user_ids"`
	IncludeExternalUserIDs    []string               `json:"include_external_user_ids"`
}

type sendResponse struct {
	ID         string      `json:"id"`
	Recipients int         `json:"recipients"`
	Errors     interface{} `json:"errors,omitempty"`
}

func buildPayload(appID string, msg entity.PushMessage) payload {
	p := payload{
		AppID:                     appID,
		Data:                      msg.Data,
		ChannelForExternalUserIDs: channelPush,
		IncludeExternalUserIDs:    msg.ExternalIds,
	}
	if p.Data == nil {
		p.Data = map[string]interface{}{}
	}
	if msg.TemplateId != "" {
		p.TemplateID = msg.TemplateId
	} else {
		p.Headings = &content{En: msg.Title}
		p.Contents = &content{En: msg.Body}
	}
	return p
}

func (c *client) Send(ctx context.Context, msg entity.PushMessage) error {
	if c.cfg.AppID == "" || c.cfg.APIKey == "" {
		return ErrNotConfigured
	}
	if len(msg.ExternalIds) == 0 {
		return nil
	}

	body, err := json.Marshal(buildPayload(c.cfg.AppID, msg))
	if err != nil {
		return fmt.Errorf("marshal onesignal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Basic "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("onesignal request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(raw)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return fmt.Errorf("onesignal returned %d: %s", resp.StatusCode, snippet)
	}

	var out sendResponse
	if err := json.Unmarshal(raw, &out); err == nil {
		zlog.Debug("onesignal sent",
			zap.String("onesignal_id", out.ID),
			zap.Int("recipients", out.Recipients),
			zap.Int("external_ids", len(msg.ExternalIds)),
			zap.Any("errors", out.Errors),
		)
	}
	return nil
}
