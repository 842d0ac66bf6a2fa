package openai

import (
	"sync"

	"github.com/amber-ici/amber/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GraphOpenAIBackend implements the ai.ModelBackend interface against any
// OpenAI-compatible chat completions endpoint. It is the adapter of choice for
// hosted inference services; for local Ollama servers use pkg/ai/ollama.
type GraphOpenAIBackend struct {
	chatURL string
	chatKey string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *openai.Client
}

// NewGraphOpenAIBackendParams defines the configuration for creating a new
// GraphOpenAIBackend. An empty ChatURL targets the official OpenAI API.
type NewGraphOpenAIBackendParams struct {
	ChatURL string
	ChatKey string
}

// NewGraphOpenAIBackend creates an OpenAI-backed ModelBackend configured with
// the provided parameters.
func NewGraphOpenAIBackend(params NewGraphOpenAIBackendParams) *GraphOpenAIBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(params.ChatKey),
	}
	if params.ChatURL != "" {
		opts = append(opts, option.WithBaseURL(params.ChatURL))
	}
	client := openai.NewClient(opts...)

	return &GraphOpenAIBackend{
		chatURL: params.ChatURL,
		chatKey: params.ChatKey,

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		Client: &client,
	}
}
