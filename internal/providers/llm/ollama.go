package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

type Ollama struct {
	api   *api.Client
	http  *http.Client
	model string
}

// NewOllama builds a client for the daemon at baseURL. httpClient may be nil.
func NewOllama(baseURL, model string, httpClient *http.Client) (*Ollama, error) {
	u, err := url.ParseRequestURI(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if model == "" {
		model = "gemma3:27b"
	}
	return &Ollama{api: api.NewClient(u, httpClient), http: httpClient, model: model}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Ping(ctx context.Context) error {
	_, err := o.api.Version(ctx)
	return err
}

func (o *Ollama) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: map[string]any{},
	}
	if opts.Temperature > 0 {
		req.Options["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.Options["num_predict"] = opts.MaxTokens
	}

	var sb strings.Builder
	err := o.api.Generate(ctx, req, func(r api.GenerateResponse) error {
		sb.WriteString(r.Response)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (o *Ollama) Close() error {
	if tr, ok := o.http.Transport.(interface{ CloseIdleConnections() }); ok {
		tr.CloseIdleConnections()
	}
	return nil
}
