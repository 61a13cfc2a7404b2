// Package llm is the provider-agnostic language-model layer. Provider
// adapters live in the providers sub-package and register themselves from
// init(); callers only see Client.
package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Client is the provider-agnostic LLM interface.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete performs a blocking generation and returns the full response.
	Complete(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// ProviderFactory creates a Client for a given model name within a provider.
type ProviderFactory func(modelName string) (Client, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderFactory{}
)

// RegisterProvider registers a factory function for a named provider.
// Call this from init() in provider packages.
func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Providers returns the registered provider names in sorted order.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewClient constructs a Client for the given model ID ("provider:model-name").
func NewClient(modelID string) (Client, error) {
	provider, modelName, err := ParseModelID(modelID)
	if err != nil {
		return nil, fmt.Errorf("NewClient: %w", err)
	}
	registryMu.RLock()
	factory, ok := registry[provider]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no provider registered for %q (model ID %q); did you import the provider package?", provider, modelID)
	}
	return factory(modelName)
}

// retryingClient retries transient failures of the wrapped client.
type retryingClient struct {
	next        Client
	maxAttempts int
}

// Retrying wraps c so that Complete is retried on rate-limit and server
// errors. maxAttempts <= 1 returns c unchanged.
func Retrying(c Client, maxAttempts int) Client {
	if maxAttempts <= 1 {
		return c
	}
	return &retryingClient{next: c, maxAttempts: maxAttempts}
}

func (r *retryingClient) Complete(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	var resp GenerateResponse
	err := WithRetry(ctx, r.maxAttempts, func() error {
		var innerErr error
		resp, innerErr = r.next.Complete(ctx, req)
		return innerErr
	})
	return resp, err
}
