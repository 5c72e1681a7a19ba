package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

var ErrInvalidConversation = errors.New("conversation id is empty")

const (
	defaultArchiveKeyPrefix = "aster:conversation:"
	defaultArchiveTTL       = 7 * 24 * time.Hour
	defaultRedisRetention   = 200
	maxResponseSizeBytes    = 2 << 20
)

// RedisConfig points at an Upstash-compatible Redis REST endpoint.
type RedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// RedisArchiveOption customizes RedisArchive.
type RedisArchiveOption func(*RedisArchive)

func WithKeyPrefix(prefix string) RedisArchiveOption {
	return func(a *RedisArchive) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			a.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) RedisArchiveOption {
	return func(a *RedisArchive) {
		a.ttl = ttl
	}
}

// WithRetention caps how many messages a conversation list keeps. Zero
// disables trimming.
func WithRetention(retention int) RedisArchiveOption {
	return func(a *RedisArchive) {
		if retention >= 0 {
			a.retention = retention
		}
	}
}

func WithRedisHTTPClient(client *http.Client) RedisArchiveOption {
	return func(a *RedisArchive) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// RedisArchive stores each conversation as a Redis list, one JSON message
// per element, via the Upstash REST protocol.
type RedisArchive struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
	retention  int
}

var _ Archive = (*RedisArchive)(nil)

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func NewRedisArchive(cfg RedisConfig, opts ...RedisArchiveOption) (*RedisArchive, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("redis rest url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("redis rest token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	archive := &RedisArchive{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		keyPrefix: defaultArchiveKeyPrefix,
		ttl:       defaultArchiveTTL,
		retention: defaultRedisRetention,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(archive)
		}
	}

	if archive.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	return archive, nil
}

func (a *RedisArchive) Append(ctx context.Context, conversationID string, message contractx.ConversationMessage) error {
	key, err := a.redisKey(conversationID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal conversation message: %w", err)
	}

	if _, err := a.exec(ctx, []any{"RPUSH", key, string(payload)}); err != nil {
		return err
	}
	if a.retention > 0 {
		if _, err := a.exec(ctx, []any{"LTRIM", key, -a.retention, -1}); err != nil {
			return err
		}
	}
	if a.ttl > 0 {
		if _, err := a.exec(ctx, []any{"EXPIRE", key, ttlSeconds(a.ttl)}); err != nil {
			return err
		}
	}
	return nil
}

func (a *RedisArchive) Tail(ctx context.Context, conversationID string, limit int) ([]contractx.ConversationMessage, error) {
	key, err := a.redisKey(conversationID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultCapacity
	}

	resp, err := a.exec(ctx, []any{"LRANGE", key, -limit, -1})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, nil
	}

	var encoded []string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return nil, fmt.Errorf("decode conversation tail: %w", err)
	}

	messages := make([]contractx.ConversationMessage, 0, len(encoded))
	for _, raw := range encoded {
		var message contractx.ConversationMessage
		if err := json.Unmarshal([]byte(raw), &message); err != nil {
			return nil, fmt.Errorf("unmarshal conversation message: %w", err)
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func (a *RedisArchive) redisKey(conversationID string) (string, error) {
	if strings.TrimSpace(conversationID) == "" {
		return "", ErrInvalidConversation
	}
	return a.keyPrefix + conversationID, nil
}

func (a *RedisArchive) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
