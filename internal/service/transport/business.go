package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// businessProvider talks to the official cloud business API. It is stateless:
// the credential is a bearer token, the instance name is the phone number id
// and there is no pairing step, so Connect degrades to a credential check.
type businessProvider struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func NewBusinessProvider(baseURL string, client *http.Client, log zerolog.Logger) Provider {
	return &businessProvider{
		baseURL: baseURL,
		client:  client,
		log:     log.With().Str("provider", ProviderBusiness).Logger(),
	}
}

func (p *businessProvider) Name() string { return ProviderBusiness }

func (p *businessProvider) CheckStatus(ctx context.Context, instanceName, credential string) StatusResult {
	status, _, err := p.do(ctx, http.MethodGet, "/"+instanceName, credential, nil)
	if err != nil || status >= 400 {
		return StatusResult{State: StateDisconnected}
	}
	return StatusResult{State: StateConnected}
}

func (p *businessProvider) Connect(ctx context.Context, instanceName, credential string) (*ConnectResult, error) {
	status, raw, err := p.do(ctx, http.MethodGet, "/"+instanceName, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to validate credential: %w", err)
	}
	if status >= 400 {
		return nil, &ProviderError{Status: status, Detail: string(raw)}
	}
	return &ConnectResult{Status: StateConnected}, nil
}

func (p *businessProvider) Disconnect(ctx context.Context, instanceName, credential string) {
	// Nothing to tear down remotely; the token simply stops being used.
	p.log.Debug().Str("instance", instanceName).Msg("business API disconnect is a no-op")
}

func (p *businessProvider) SendMessage(ctx context.Context, phone, message, instanceName, credential string) (*SendResult, error) {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "text",
		"text":              map[string]string{"body": message},
	}

	status, raw, err := p.do(ctx, http.MethodPost, "/"+instanceName+"/messages", credential, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to reach messaging provider: %w", err)
	}
	if status >= 400 {
		return nil, &ProviderError{Status: status, Detail: string(raw)}
	}

	var sent struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	_ = json.Unmarshal(raw, &sent)

	result := &SendResult{}
	if len(sent.Messages) > 0 {
		result.ProviderMessageID = sent.Messages[0].ID
	}
	return result, nil
}

func (p *businessProvider) do(ctx context.Context, method, path, credential string, payload interface{}) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, raw, nil
}
