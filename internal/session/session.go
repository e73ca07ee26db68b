// Package session supplies the current conversational session handle.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Provider returns the opaque handle for the current session. Streamed
// events are filtered by exact match against this handle.
type Provider interface {
	Current() string
	Renew() string
}

// LocalProvider issues process-local session handles.
type LocalProvider struct {
	mu sync.Mutex
	id string
}

// NewLocalProvider creates a provider with a fresh handle.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{id: newHandle()}
}

// Current returns the active session handle.
func (p *LocalProvider) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id
}

// Renew replaces the handle, so events scoped to the old session can never
// match again.
func (p *LocalProvider) Renew() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id = newHandle()
	return p.id
}

func newHandle() string {
	return uuid.Must(uuid.NewV7()).String()
}
