package transport

import "context"

// mockProvider always succeeds. Used in tests and for tenants that have
// messaging switched off but still exercise the pipeline.
type mockProvider struct{}

func NewMockProvider() Provider {
	return &mockProvider{}
}

func (p *mockProvider) Name() string { return ProviderMock }

func (p *mockProvider) CheckStatus(ctx context.Context, instanceName, credential string) StatusResult {
	return StatusResult{State: StateConnected}
}

func (p *mockProvider) Connect(ctx context.Context, instanceName, credential string) (*ConnectResult, error) {
	return &ConnectResult{Status: StateConnected}, nil
}

func (p *mockProvider) Disconnect(ctx context.Context, instanceName, credential string) {}

func (p *mockProvider) SendMessage(ctx context.Context, phone, message, instanceName, credential string) (*SendResult, error) {
	return &SendResult{ProviderMessageID: "mock"}, nil
}
