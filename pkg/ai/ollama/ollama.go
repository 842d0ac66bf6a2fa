package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/amber-ici/amber/backend/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

const defaultBaseURL = "http://localhost:11434"

// GraphOllamaBackend implements the ai.ModelBackend interface against a local
// or remote Ollama server. Token streams are read line-by-line from the
// generate endpoint; model listing and preloading go through the api client.
type GraphOllamaBackend struct {
	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewGraphOllamaBackendParams contains configuration for creating a new GraphOllamaBackend.
type NewGraphOllamaBackendParams struct {
	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewGraphOllamaBackend creates an Ollama-backed ModelBackend. An empty
// BaseURL falls back to the default local server address.
func NewGraphOllamaBackend(
	params NewGraphOllamaBackendParams,
) (*GraphOllamaBackend, error) {
	base := params.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 1
	}

	return &GraphOllamaBackend{
		reqLock: semaphore.NewWeighted(maxReq),

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: api.NewClient(u, httpClient),
	}, nil
}
