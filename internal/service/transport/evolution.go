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

// evolutionProvider talks to an Evolution-style multi-device gateway. Pairing
// is stateful: an instance is created server-side and linked to a handset by
// scanning a QR code.
type evolutionProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

func NewEvolutionProvider(baseURL, apiKey string, client *http.Client, log zerolog.Logger) Provider {
	return &evolutionProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		log:     log.With().Str("provider", ProviderEvolution).Logger(),
	}
}

func (p *evolutionProvider) Name() string { return ProviderEvolution }

func (p *evolutionProvider) CheckStatus(ctx context.Context, instanceName, credential string) StatusResult {
	var body struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}

	status, raw, err := p.do(ctx, http.MethodGet, "/instance/connectionState/"+instanceName, credential, nil)
	if err != nil || status >= 400 {
		return StatusResult{State: StateDisconnected}
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return StatusResult{State: StateDisconnected}
	}

	switch body.Instance.State {
	case "open":
		return StatusResult{State: StateConnected}
	case "connecting":
		return StatusResult{State: StateConnecting}
	default:
		return StatusResult{State: StateDisconnected}
	}
}

func (p *evolutionProvider) Connect(ctx context.Context, instanceName, credential string) (*ConnectResult, error) {
	createPayload := map[string]interface{}{
		"instanceName": instanceName,
		"token":        credential,
		"qrcode":       true,
		"integration":  "WHATSAPP-BAILEYS",
	}

	status, raw, err := p.do(ctx, http.MethodPost, "/instance/create", credential, createPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}
	// 403/409 mean the instance already exists; treat as success and move on
	// to pairing.
	if status >= 400 && status != http.StatusForbidden && status != http.StatusConflict {
		return nil, &ProviderError{Status: status, Detail: string(raw)}
	}

	status, raw, err = p.do(ctx, http.MethodGet, "/instance/connect/"+instanceName, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start pairing: %w", err)
	}
	if status >= 400 {
		return nil, &ProviderError{Status: status, Detail: string(raw)}
	}

	var pairing struct {
		Base64      string `json:"base64"`
		Code        string `json:"code"`
		PairingCode string `json:"pairingCode"`
	}
	if err := json.Unmarshal(raw, &pairing); err != nil {
		return nil, fmt.Errorf("failed to decode pairing response: %w", err)
	}

	qr := pairing.Base64
	if qr == "" {
		qr = pairing.Code
	}

	return &ConnectResult{
		Status:      StateConnecting,
		QRCode:      qr,
		PairingCode: pairing.PairingCode,
	}, nil
}

func (p *evolutionProvider) Disconnect(ctx context.Context, instanceName, credential string) {
	if status, raw, err := p.do(ctx, http.MethodDelete, "/instance/logout/"+instanceName, credential, nil); err != nil || status >= 400 {
		p.log.Warn().Err(err).Int("status", status).Str("instance", instanceName).
			Str("body", string(raw)).Msg("instance logout failed")
	}
	if status, raw, err := p.do(ctx, http.MethodDelete, "/instance/delete/"+instanceName, credential, nil); err != nil || status >= 400 {
		p.log.Warn().Err(err).Int("status", status).Str("instance", instanceName).
			Str("body", string(raw)).Msg("instance delete failed")
	}
}

func (p *evolutionProvider) SendMessage(ctx context.Context, phone, message, instanceName, credential string) (*SendResult, error) {
	payload := map[string]interface{}{
		"number": phone,
		"text":   message,
	}

	status, raw, err := p.do(ctx, http.MethodPost, "/message/sendText/"+instanceName, credential, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to reach messaging provider: %w", err)
	}
	if status >= 400 {
		return nil, &ProviderError{Status: status, Detail: string(raw)}
	}

	var sent struct {
		Key struct {
			ID string `json:"id"`
		} `json:"key"`
	}
	_ = json.Unmarshal(raw, &sent)

	return &SendResult{ProviderMessageID: sent.Key.ID}, nil
}

func (p *evolutionProvider) do(ctx context.Context, method, path, credential string, payload interface{}) (int, []byte, error) {
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

	// The instance credential doubles as its API key; the global key covers
	// instance lifecycle calls when no credential exists yet.
	apiKey := credential
	if apiKey == "" {
		apiKey = p.apiKey
	}
	req.Header.Set("apikey", apiKey)

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
