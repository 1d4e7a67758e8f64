package external

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"appealnotify/internal/config"
	"appealnotify/internal/types"
)

// CorrespondenceClient persists a copy of sent correspondence into the case
// record via the case-management backend.
type CorrespondenceClient struct {
	base    *BaseClient
	baseURL string
}

var _ types.CorrespondenceStore = (*CorrespondenceClient)(nil)

func NewCorrespondenceClient(cfg config.CorrespondenceConfig, opts ...BaseClientOption) *CorrespondenceClient {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &CorrespondenceClient{
		base:    NewBaseClient(httpClient, "correspondence", NoRetryPolicy(), "appeal-notifications/1.0", opts...),
		baseURL: cfg.StoreBaseURL,
	}
}

// Persist writes the artifact against the case. A 409 means the case record
// has not yet materialized the correspondence slot; that maps to
// ErrArtifactNotReady so the saver retries on its own schedule.
func (c *CorrespondenceClient) Persist(ctx context.Context, caseID string, pdf []byte, meta types.CorrespondenceMeta) error {
	body, err := json.Marshal(map[string]any{
		"event":     meta.Event,
		"channel":   string(meta.Channel),
		"recipient": meta.Recipient,
		"sent_at":   meta.SentAt,
		"document":  base64.StdEncoding.EncodeToString(pdf),
	})
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to marshal correspondence", err)
	}

	url := fmt.Sprintf("%s/cases/%s/correspondence", c.baseURL, caseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build correspondence request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return types.ErrArtifactNotReady
	case resp.StatusCode == http.StatusNotFound:
		return types.NewAppError(types.ErrCodeNotFoundCase,
			"case not found for correspondence", nil).WithDetail("case_id", caseID)
	default:
		return types.NewAppError(types.ErrCodeValidationBadPayload,
			fmt.Sprintf("correspondence store rejected the artifact with %d", resp.StatusCode), nil)
	}
}
