package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"regula-notificador/internal/config"
)

const (
	ProviderEvolution = "evolution"
	ProviderBusiness  = "business"
	ProviderMock      = "mock"
)

const (
	StateConnected    = "connected"
	StateConnecting   = "connecting"
	StateDisconnected = "disconnected"
)

// requestTimeout bounds every provider HTTP call so one unreachable transport
// cannot stall a queue worker.
const requestTimeout = 5 * time.Second

type StatusResult struct {
	State  string `json:"state"`
	QRCode string `json:"qr_code,omitempty"`
}

type ConnectResult struct {
	Status      string `json:"status"`
	QRCode      string `json:"qr_code,omitempty"`
	PairingCode string `json:"pairing_code,omitempty"`
}

type SendResult struct {
	ProviderMessageID string `json:"provider_message_id,omitempty"`
}

// ProviderError carries the upstream status and body of a rejected send so
// the queue can retain it as the failure reason.
type ProviderError struct {
	Status int
	Detail string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("messaging provider error (status %d): %s", e.Status, e.Detail)
}

// Provider is one tenant-facing messaging backend.
//
// CheckStatus fails soft: network trouble reports the instance disconnected
// instead of returning an error. Disconnect is best-effort and swallows
// provider errors so a tenant can always reconfigure. SendMessage is the one
// method whose failure propagates, feeding the queue's retry cycle.
type Provider interface {
	Name() string
	CheckStatus(ctx context.Context, instanceName, credential string) StatusResult
	Connect(ctx context.Context, instanceName, credential string) (*ConnectResult, error)
	Disconnect(ctx context.Context, instanceName, credential string)
	SendMessage(ctx context.Context, phone, message, instanceName, credential string) (*SendResult, error)
}

// Registry resolves a tenant's configured provider name. Unknown names fall
// back to the default variant so a misconfigured tenant never blocks dispatch.
type Registry struct {
	providers map[string]Provider
	fallback  Provider
}

func NewRegistry(cfg *config.Config, log zerolog.Logger) *Registry {
	client := &http.Client{Timeout: requestTimeout}

	evolution := NewEvolutionProvider(cfg.EvolutionAPIURL, cfg.EvolutionAPIKey, client, log)
	business := NewBusinessProvider(cfg.BusinessAPIURL, client, log)
	mock := NewMockProvider()

	providers := map[string]Provider{
		ProviderEvolution: evolution,
		ProviderBusiness:  business,
		ProviderMock:      mock,
	}

	fallback, ok := providers[cfg.DefaultProvider]
	if !ok {
		fallback = evolution
	}

	return &Registry{providers: providers, fallback: fallback}
}

func (r *Registry) Get(name string) Provider {
	if p, ok := r.providers[name]; ok {
		return p
	}
	return r.fallback
}
