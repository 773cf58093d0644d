package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvolutionTestProvider(serverURL string) Provider {
	client := &http.Client{Timeout: time.Second}
	return NewEvolutionProvider(serverURL, "global-key", client, zerolog.Nop())
}

func TestEvolutionProvider_CheckStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instance/connectionState/tenant_abc", r.URL.Path)
		assert.Equal(t, "cred", r.Header.Get("apikey"))
		w.Write([]byte(`{"instance":{"state":"open"}}`))
	}))
	defer server.Close()

	p := newEvolutionTestProvider(server.URL)
	status := p.CheckStatus(context.Background(), "tenant_abc", "cred")
	assert.Equal(t, StateConnected, status.State)
}

func TestEvolutionProvider_CheckStatusFailsSoft(t *testing.T) {
	// Unreachable server: the instance is simply reported disconnected.
	p := newEvolutionTestProvider("http://127.0.0.1:1")
	status := p.CheckStatus(context.Background(), "tenant_abc", "cred")
	assert.Equal(t, StateDisconnected, status.State)
}

func TestEvolutionProvider_ConnectToleratesExistingInstance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/instance/create":
			// Instance already exists remotely.
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"Instance already in use"}`))
		case "/instance/connect/tenant_abc":
			w.Write([]byte(`{"base64":"data:image/png;base64,QR","code":"raw"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	p := newEvolutionTestProvider(server.URL)
	result, err := p.Connect(context.Background(), "tenant_abc", "cred")
	require.NoError(t, err)
	assert.Equal(t, StateConnecting, result.Status)
	assert.Equal(t, "data:image/png;base64,QR", result.QRCode)
}

func TestEvolutionProvider_SendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/message/sendText/tenant_abc", r.URL.Path)
		w.Write([]byte(`{"key":{"id":"MSG1"}}`))
	}))
	defer server.Close()

	p := newEvolutionTestProvider(server.URL)
	result, err := p.SendMessage(context.Background(), "551188887777", "olá", "tenant_abc", "cred")
	require.NoError(t, err)
	assert.Equal(t, "MSG1", result.ProviderMessageID)
}

func TestEvolutionProvider_SendMessageRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid number"}`))
	}))
	defer server.Close()

	p := newEvolutionTestProvider(server.URL)
	_, err := p.SendMessage(context.Background(), "nope", "olá", "tenant_abc", "cred")
	require.Error(t, err)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusBadRequest, provErr.Status)
	assert.Contains(t, provErr.Detail, "invalid number")
}
