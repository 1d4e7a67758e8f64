package external

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"appealnotify/internal/types"
)

// Stub implementations let the application boot in local mode without real
// service credentials. They log all actions and return predictable, safe
// default values.

// StubSender implements NotificationSender by logging sends and returning a
// fake provider id.
type StubSender struct {
	logger types.Logger
}

var _ types.NotificationSender = (*StubSender)(nil)

func NewStubSender(logger types.Logger) *StubSender {
	return &StubSender{logger: logger}
}

func (s *StubSender) SendEmail(_ context.Context, templateID, to string, _ map[string]string, reference string) (string, error) {
	s.logger.Info("stub: SendEmail called",
		"template_id", templateID,
		"to", to,
		"reference", reference,
	)
	return fmt.Sprintf("stub-email-%s", uuid.New().String()), nil
}

func (s *StubSender) SendSMS(_ context.Context, templateID, to string, _ map[string]string, reference string) (string, error) {
	s.logger.Info("stub: SendSMS called",
		"template_id", templateID,
		"to", to,
		"reference", reference,
	)
	return fmt.Sprintf("stub-sms-%s", uuid.New().String()), nil
}

func (s *StubSender) SendLetter(_ context.Context, templateID string, addr types.Address, _ map[string]string, reference string) (string, error) {
	s.logger.Info("stub: SendLetter called",
		"template_id", templateID,
		"postcode", addr.Postcode,
		"reference", reference,
	)
	return fmt.Sprintf("stub-letter-%s", uuid.New().String()), nil
}

func (s *StubSender) SendPrecompiledLetter(_ context.Context, pdf []byte, addr types.Address, reference string) (string, error) {
	s.logger.Info("stub: SendPrecompiledLetter called",
		"pdf_bytes", len(pdf),
		"postcode", addr.Postcode,
		"reference", reference,
	)
	return fmt.Sprintf("stub-letter-%s", uuid.New().String()), nil
}

// StubVerifier implements TokenVerifier by accepting any non-empty token.
type StubVerifier struct {
	logger types.Logger
}

var _ types.TokenVerifier = (*StubVerifier)(nil)

func NewStubVerifier(logger types.Logger) *StubVerifier {
	return &StubVerifier{logger: logger}
}

func (s *StubVerifier) Verify(_ context.Context, token string) error {
	if token == "" {
		return types.NewAppError(types.ErrCodeAuthTokenMissing,
			"service authorization token missing", nil)
	}
	s.logger.Info("stub: token accepted")
	return nil
}

// StubRenderer implements CoverLetterRenderer with a fixed single-page PDF.
type StubRenderer struct {
	logger types.Logger
}

var _ types.CoverLetterRenderer = (*StubRenderer)(nil)

func NewStubRenderer(logger types.Logger) *StubRenderer {
	return &StubRenderer{logger: logger}
}

func (s *StubRenderer) Render(_ context.Context, templateID string, _ map[string]string) ([]byte, error) {
	s.logger.Info("stub: Render called", "template_id", templateID)
	return []byte(stubPDF), nil
}

// StubDocumentStore implements DocumentStore with a fixed single-page PDF.
type StubDocumentStore struct {
	logger types.Logger
}

var _ types.DocumentStore = (*StubDocumentStore)(nil)

func NewStubDocumentStore(logger types.Logger) *StubDocumentStore {
	return &StubDocumentStore{logger: logger}
}

func (s *StubDocumentStore) Download(_ context.Context, url string) ([]byte, error) {
	s.logger.Info("stub: Download called", "url", url)
	return []byte(stubPDF), nil
}

// StubCorrespondenceStore implements CorrespondenceStore by logging.
type StubCorrespondenceStore struct {
	logger types.Logger
}

var _ types.CorrespondenceStore = (*StubCorrespondenceStore)(nil)

func NewStubCorrespondenceStore(logger types.Logger) *StubCorrespondenceStore {
	return &StubCorrespondenceStore{logger: logger}
}

func (s *StubCorrespondenceStore) Persist(_ context.Context, caseID string, pdf []byte, meta types.CorrespondenceMeta) error {
	s.logger.Info("stub: Persist called",
		"case_id", caseID,
		"pdf_bytes", len(pdf),
		"event", meta.Event,
	)
	return nil
}

// stubPDF is a minimal single-page PDF so the local bundling path produces
// mergeable output.
const stubPDF = `%PDF-1.4
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>
endobj
xref
0 4
0000000000 65535 f
0000000009 00000 n
0000000058 00000 n
0000000115 00000 n
trailer
<< /Size 4 /Root 1 0 R >>
startxref
186
%%EOF
`

// StubRegistry implements TemplateRegistry by resolving every query to the
// same fixed template set.
type StubRegistry struct {
	logger types.Logger
}

var _ types.TemplateRegistry = (*StubRegistry)(nil)

func NewStubRegistry(logger types.Logger) *StubRegistry {
	return &StubRegistry{logger: logger}
}

func (s *StubRegistry) Resolve(q types.TemplateQuery) (types.Template, error) {
	s.logger.Info("stub: Resolve called",
		"event", q.Event,
		"role", string(q.Role),
	)
	return types.Template{
		EmailTemplateID:  "stub-email-template",
		SmsTemplateIDs:   []string{"stub-sms-template"},
		LetterTemplateID: "stub-letter-template",
	}, nil
}
