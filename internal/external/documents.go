package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"appealnotify/internal/config"
	"appealnotify/internal/types"
)

// DocumentStoreClient downloads case document bytes from the document store.
type DocumentStoreClient struct {
	base *BaseClient
}

var _ types.DocumentStore = (*DocumentStoreClient)(nil)

func NewDocumentStoreClient(cfg config.DocumentsConfig, opts ...BaseClientOption) *DocumentStoreClient {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &DocumentStoreClient{
		base: NewBaseClient(httpClient, "document-store", DefaultRetryPolicy(), "appeal-notifications/1.0", opts...),
	}
}

// Download fetches the document bytes at the given URL.
func (c *DocumentStoreClient) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build document request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, types.NewAppError(types.ErrCodeNotFoundDocument,
			"document not found in store", nil).WithDetail("url", url)
	case resp.StatusCode >= 300:
		return nil, types.NewAppError(types.ErrCodeUpstreamDocuments,
			fmt.Sprintf("document store returned %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamDocuments,
			"failed to read document body", err)
	}
	return raw, nil
}

// PDFRenderClient generates cover letter PDFs from a template and a
// placeholder map via the rendering service.
type PDFRenderClient struct {
	base    *BaseClient
	baseURL string
	apiKey  types.SecretString
}

var _ types.CoverLetterRenderer = (*PDFRenderClient)(nil)

func NewPDFRenderClient(cfg config.DocumentsConfig, opts ...BaseClientOption) *PDFRenderClient {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &PDFRenderClient{
		base:    NewBaseClient(httpClient, "pdf-render", DefaultRetryPolicy(), "appeal-notifications/1.0", opts...),
		baseURL: cfg.RenderBaseURL,
		apiKey:  cfg.RenderAPIKey,
	}
}

// Render produces the PDF bytes for the template and placeholders.
func (c *PDFRenderClient) Render(ctx context.Context, templateID string, placeholders map[string]string) ([]byte, error) {
	body, err := json.Marshal(map[string]any{
		"template_name": templateID,
		"data":          placeholders,
	})
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to marshal render request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rs/render", bytes.NewReader(body))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build render request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey.Unmask())

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, types.NewAppError(types.ErrCodeUpstreamPDF,
			fmt.Sprintf("render service returned %d", resp.StatusCode), nil).
			WithDetail("template", templateID)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamPDF,
			"failed to read rendered PDF", err)
	}
	return pdf, nil
}
