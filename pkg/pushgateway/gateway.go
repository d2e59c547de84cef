package pushgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/veloapp/pushops-backend/internal/config"
)

// Gateway represents a push-delivery gateway. Send hands one notification to
// the provider and returns the provider's delivery ID. Transient provider
// errors are retried inside the provider; by the time an error surfaces here
// it is a final outcome.
type Gateway interface {
	Send(ctx context.Context, token, title, body string, data map[string]interface{}) (string, error)
}

// SendError is a classified gateway failure.
type SendError struct {
	StatusCode int
	Message    string
	Transient  bool
}

func (e *SendError) Error() string {
	return fmt.Sprintf("push gateway: %s (status %d)", e.Message, e.StatusCode)
}

// HTTPGateway talks to the push provider's REST API.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPGateway creates a gateway client from configuration.
func NewHTTPGateway(cfg *config.Config) Gateway {
	return &HTTPGateway{
		baseURL: cfg.Push.BaseURL,
		apiKey:  cfg.Push.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send delivers one push message through the provider.
func (g *HTTPGateway) Send(ctx context.Context, token, title, body string, data map[string]interface{}) (string, error) {
	requestBody := map[string]interface{}{
		"token": token,
		"title": title,
		"body":  body,
	}
	if len(data) > 0 {
		requestBody["data"] = data
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/send", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &SendError{Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &SendError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			Transient:  resp.StatusCode >= 500,
		}
	}

	var response struct {
		DeliveryID string `json:"deliveryId"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return response.DeliveryID, nil
}

// MockGateway simulates deliveries for development and tests.
type MockGateway struct{}

// NewMockGateway creates a mock push gateway.
func NewMockGateway() Gateway {
	return &MockGateway{}
}

// Send pretends to deliver and returns a fresh delivery ID.
func (g *MockGateway) Send(ctx context.Context, token, title, body string, data map[string]interface{}) (string, error) {
	return "MOCK-" + uuid.NewString(), nil
}
