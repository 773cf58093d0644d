package transport

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"regula-notificador/internal/config"
)

func newTestRegistry(defaultProvider string) *Registry {
	cfg := &config.Config{
		EvolutionAPIURL: "http://localhost:1",
		BusinessAPIURL:  "http://localhost:1",
		DefaultProvider: defaultProvider,
	}
	return NewRegistry(cfg, zerolog.Nop())
}

func TestRegistry_Get(t *testing.T) {
	r := newTestRegistry(ProviderEvolution)

	assert.Equal(t, ProviderEvolution, r.Get(ProviderEvolution).Name())
	assert.Equal(t, ProviderBusiness, r.Get(ProviderBusiness).Name())
	assert.Equal(t, ProviderMock, r.Get(ProviderMock).Name())
}

func TestRegistry_UnknownFallsBackToDefault(t *testing.T) {
	r := newTestRegistry(ProviderEvolution)

	assert.Equal(t, ProviderEvolution, r.Get("typo-provider").Name())
	assert.Equal(t, ProviderEvolution, r.Get("").Name())
}

func TestRegistry_MisconfiguredDefaultFallsBackToEvolution(t *testing.T) {
	r := newTestRegistry("no-such-variant")

	assert.Equal(t, ProviderEvolution, r.Get("also-unknown").Name())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	ctx := context.Background()

	status := p.CheckStatus(ctx, "inst", "cred")
	assert.Equal(t, StateConnected, status.State)

	connect, err := p.Connect(ctx, "inst", "cred")
	assert.NoError(t, err)
	assert.Equal(t, StateConnected, connect.Status)

	result, err := p.SendMessage(ctx, "551188887777", "hello", "inst", "cred")
	assert.NoError(t, err)
	assert.NotEmpty(t, result.ProviderMessageID)
}
