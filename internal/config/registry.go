package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pourlane/ordercore/pkg/provider/embeddings"
	"github.com/pourlane/ordercore/pkg/provider/extract"
	"github.com/pourlane/ordercore/pkg/provider/similarity"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	extraction map[string]func(ProviderEntry) (extract.Provider, error)
	embeddings map[string]func(ProviderEntry) (embeddings.Provider, error)
	similarity map[string]func(ProviderEntry) (similarity.Ranker, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		extraction: make(map[string]func(ProviderEntry) (extract.Provider, error)),
		embeddings: make(map[string]func(ProviderEntry) (embeddings.Provider, error)),
		similarity: make(map[string]func(ProviderEntry) (similarity.Ranker, error)),
	}
}

// RegisterExtraction registers a mention-extraction provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterExtraction(name string, factory func(ProviderEntry) (extract.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extraction[name] = factory
}

// RegisterEmbeddings registers an embeddings provider factory under name.
func (r *Registry) RegisterEmbeddings(name string, factory func(ProviderEntry) (embeddings.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embeddings[name] = factory
}

// RegisterSimilarity registers a similarity ranker factory under name.
func (r *Registry) RegisterSimilarity(name string, factory func(ProviderEntry) (similarity.Ranker, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.similarity[name] = factory
}

// CreateExtraction constructs the extraction provider selected by entry.Name.
func (r *Registry) CreateExtraction(entry ProviderEntry) (extract.Provider, error) {
	r.mu.RLock()
	factory, ok := r.extraction[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: extraction provider %q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateEmbeddings constructs the embeddings provider selected by entry.Name.
func (r *Registry) CreateEmbeddings(entry ProviderEntry) (embeddings.Provider, error) {
	r.mu.RLock()
	factory, ok := r.embeddings[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: embeddings provider %q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSimilarity constructs the similarity ranker selected by entry.Name.
func (r *Registry) CreateSimilarity(entry ProviderEntry) (similarity.Ranker, error) {
	r.mu.RLock()
	factory, ok := r.similarity[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: similarity provider %q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
