package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type LLMBuilder interface {
	New(ctx context.Context) (model.ToolCallingChatModel, error)
}

var _ LLMBuilder = (*Config)(nil)

// placeholderAPIKey satisfies the OpenAI-compatible client. Ollama itself
// ignores the value.
const placeholderAPIKey = "ollama"

// Config targets a local Ollama server through its OpenAI-compatible API.
// KeepAlive controls how long the model stays resident after a request, which
// matters for a local assistant that answers in bursts.
type Config struct {
	BaseURL            string        `split_words:"true" default:"http://localhost:11434/v1"`
	APIKey             string        `split_words:"true"`
	Model              string        `split_words:"true" default:"llama3.1:8b"`
	MaxCompletionToken *int          `split_words:"true" default:"2000"`
	Temperature        float32       `split_words:"true" default:"0.5"`
	Timeout            time.Duration `split_words:"true" default:"120s"`
	KeepAlive          string        `split_words:"true" default:"5m"`
}

func (c *Config) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	conf := &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(c.BaseURL, "/"),
		APIKey:      c.apiKey(),
		Model:       strings.TrimSpace(c.Model),
		MaxTokens:   c.MaxCompletionToken,
		Temperature: &c.Temperature,
		Timeout:     c.Timeout,
	}

	if keepAlive := strings.TrimSpace(c.KeepAlive); keepAlive != "" {
		conf.ExtraFields = map[string]any{
			"keep_alive": keepAlive,
		}
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("ollama: create chat model: %w", err)
	}

	return m, nil
}

func (c *Config) apiKey() string {
	if key := strings.TrimSpace(c.APIKey); key != "" {
		return key
	}
	return placeholderAPIKey
}

// NewClient creates an OpenAI SDK client pointed at the local server. Useful
// for endpoints the eino model layer does not cover, such as model listing.
func NewClient(cfg Config) *openaisdk.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.apiKey()),
	}

	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	client := openaisdk.NewClient(opts...)
	return &client
}

// CheckConnection verifies the server answers at all, so startup can tell the
// user to launch Ollama instead of failing on the first message.
func CheckConnection(ctx context.Context, client *openaisdk.Client) error {
	if client == nil {
		return errors.New("ollama: client is nil")
	}
	if _, err := client.Models.List(ctx); err != nil {
		return fmt.Errorf("ollama: server unreachable: %w", err)
	}
	return nil
}
