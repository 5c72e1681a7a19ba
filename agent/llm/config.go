package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
	ollamax "github.com/tanpawarit/Aster-Local-First-Assistant-Core/pkg/ollama"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"http://localhost:11434/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"llama3.1:8b"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"120s"`
	KeepAlive          string        `envconfig:"KEEP_ALIVE" split_words:"true" default:"5m"`

	ResponderModel        string  `envconfig:"RESPONDER_MODEL" split_words:"true"`
	ReflectionModel       string  `envconfig:"REFLECTION_MODEL" split_words:"true"`
	ResponderTemperature  float32 `envconfig:"RESPONDER_TEMPERATURE" split_words:"true" default:"-1"`
	ReflectionTemperature float32 `envconfig:"REFLECTION_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: ollama base url is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OllamaFor resolves the model settings for one pipeline stage. A negative
// stage temperature means inherit the shared default.
func (c Config) OllamaFor(stage contractx.Stage) ollamax.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch stage {
	case contractx.StageResponder:
		if v := strings.TrimSpace(c.ResponderModel); v != "" {
			modelName = v
		}
		if c.ResponderTemperature >= 0 {
			temp = c.ResponderTemperature
		}
	case contractx.StageReflection:
		if v := strings.TrimSpace(c.ReflectionModel); v != "" {
			modelName = v
		}
		if c.ReflectionTemperature >= 0 {
			temp = c.ReflectionTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return ollamax.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		KeepAlive:          strings.TrimSpace(c.KeepAlive),
	}
}
