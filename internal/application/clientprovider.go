package application

import (
	"sync"

	"github.com/ericfisherdev/mailbridge/internal/domain/port/driven"
)

// MailClientProvider enables runtime hot-swap of the mail client.
// It holds a mutex-protected reference to the current driven.MailClient,
// allowing a client built after a late authorization to take effect
// without restarting the application.
type MailClientProvider struct {
	mu     sync.RWMutex
	client driven.MailClient
}

// NewMailClientProvider creates a new provider with the given initial client.
// client may be nil if no credentials are available at startup.
func NewMailClientProvider(client driven.MailClient) *MailClientProvider {
	return &MailClientProvider{client: client}
}

// Get returns the current mail client. Callers should check for nil
// if the provider was created without initial credentials.
func (p *MailClientProvider) Get() driven.MailClient {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

// Replace swaps the current client with a new one. The next caller of
// Get() will receive the new value.
func (p *MailClientProvider) Replace(client driven.MailClient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = client
}

// HasClient returns true if a non-nil client is currently held.
func (p *MailClientProvider) HasClient() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client != nil
}
