package external

import (
	"context"
	"net/http"

	"appealnotify/internal/config"
	"appealnotify/internal/types"
)

// TokenVerifierClient validates service-to-service tokens against the
// external authorization service.
type TokenVerifierClient struct {
	base    *BaseClient
	baseURL string
}

var _ types.TokenVerifier = (*TokenVerifierClient)(nil)

func NewTokenVerifierClient(cfg config.AuthConfig, opts ...BaseClientOption) *TokenVerifierClient {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &TokenVerifierClient{
		base:    NewBaseClient(httpClient, "auth", DefaultRetryPolicy(), "appeal-notifications/1.0", opts...),
		baseURL: cfg.BaseURL,
	}
}

// Verify checks the token with the authorization service. Any non-2xx answer
// is an authentication failure.
func (c *TokenVerifierClient) Verify(ctx context.Context, token string) error {
	if token == "" {
		return types.NewAppError(types.ErrCodeAuthTokenMissing,
			"service authorization token missing", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/details", nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build verification request", err)
	}
	req.Header.Set("Authorization", token)

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return types.NewAppError(types.ErrCodeAuthTokenInvalid,
		"service authorization token rejected", nil)
}
