package external

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"appealnotify/internal/config"
	"appealnotify/internal/types"
)

// NotifyClient is the outbound notification provider client. It performs
// exactly one attempt per call: rescheduling of failed sends belongs to the
// dispatch retry policy, so BaseClient-level retries are disabled here.
type NotifyClient struct {
	base    *BaseClient
	baseURL string
	apiKey  types.SecretString
}

var _ types.NotificationSender = (*NotifyClient)(nil)

// NewNotifyClient creates a NotifyClient from configuration.
func NewNotifyClient(cfg config.NotifyConfig, opts ...BaseClientOption) *NotifyClient {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &NotifyClient{
		base:    NewBaseClient(httpClient, "notify", NoRetryPolicy(), "appeal-notifications/1.0", opts...),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

type notifySendResponse struct {
	ID string `json:"id"`
}

type notifyErrorResponse struct {
	Errors []struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	} `json:"errors"`
}

// SendEmail submits an email notification and returns the provider id.
func (c *NotifyClient) SendEmail(ctx context.Context, templateID, to string, placeholders map[string]string, reference string) (string, error) {
	return c.send(ctx, "/v2/notifications/email", map[string]any{
		"template_id":     templateID,
		"email_address":   to,
		"personalisation": placeholders,
		"reference":       reference,
	})
}

// SendSMS submits an SMS notification and returns the provider id.
func (c *NotifyClient) SendSMS(ctx context.Context, templateID, to string, placeholders map[string]string, reference string) (string, error) {
	return c.send(ctx, "/v2/notifications/sms", map[string]any{
		"template_id":     templateID,
		"phone_number":    to,
		"personalisation": placeholders,
		"reference":       reference,
	})
}

// SendLetter submits a templated letter; the address travels inside the
// personalisation map as the provider expects.
func (c *NotifyClient) SendLetter(ctx context.Context, templateID string, addr types.Address, placeholders map[string]string, reference string) (string, error) {
	personalisation := make(map[string]string, len(placeholders)+5)
	for k, v := range placeholders {
		personalisation[k] = v
	}
	personalisation["address_line_1"] = addr.Line1
	personalisation["address_line_2"] = addr.Line2
	personalisation["address_line_3"] = addr.Town
	personalisation["address_line_4"] = addr.County
	personalisation["postcode"] = addr.Postcode

	return c.send(ctx, "/v2/notifications/letter", map[string]any{
		"template_id":     templateID,
		"personalisation": personalisation,
		"reference":       reference,
	})
}

// SendPrecompiledLetter submits a fully composed PDF for postal delivery.
func (c *NotifyClient) SendPrecompiledLetter(ctx context.Context, pdf []byte, _ types.Address, reference string) (string, error) {
	return c.send(ctx, "/v2/notifications/letter", map[string]any{
		"reference": reference,
		"content":   base64.StdEncoding.EncodeToString(pdf),
	})
}

// send posts the payload and maps the outcome: 2xx parses the provider id,
// any other status becomes a *types.ProviderError carrying that status.
// Transport failures surface unchanged for outage classification.
func (c *NotifyClient) send(ctx context.Context, path string, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to marshal provider request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build provider request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey.Unmask())

	resp, err := c.base.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out notifySendResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&out); decodeErr != nil {
			return "", types.NewAppError(types.ErrCodeInternalUnexpected,
				"failed to decode provider response", decodeErr)
		}
		return out.ID, nil
	}

	return "", types.NewProviderError(resp.StatusCode, providerMessage(resp.Body), nil)
}

// providerMessage extracts the first error message from a provider rejection
// body, falling back to a generic description.
func providerMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return "provider rejected the notification"
	}
	var parsed notifyErrorResponse
	if json.Unmarshal(raw, &parsed) == nil && len(parsed.Errors) > 0 {
		return fmt.Sprintf("%s: %s", parsed.Errors[0].Error, parsed.Errors[0].Message)
	}
	return "provider rejected the notification"
}
