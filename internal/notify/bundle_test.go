package notify

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appealnotify/internal/events"
	"appealnotify/internal/types"
)

// makePDF builds a minimal but structurally valid PDF with the given number
// of pages, tracking byte offsets for a correct xref table.
func makePDF(t *testing.T, pages int) []byte {
	t.Helper()

	var buf bytes.Buffer
	offsets := make([]int, 0, pages+2)
	write := func(s string) {
		buf.WriteString(s)
	}
	object := func(s string) {
		offsets = append(offsets, buf.Len())
		write(s)
	}

	write("%PDF-1.4\n")
	object("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	object(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, pages))
	for i := 0; i < pages; i++ {
		object(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", 3+i))
	}

	xrefOffset := buf.Len()
	write(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
	write("0000000000 65535 f \n")
	for _, off := range offsets {
		write(fmt.Sprintf("%010d 00000 n \n", off))
	}
	write(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefOffset))

	return buf.Bytes()
}

func pageCount(t *testing.T, pdf []byte) int {
	t.Helper()
	n, err := api.PageCount(bytes.NewReader(pdf), nil)
	require.NoError(t, err)
	return n
}

func TestMergePDFsRejectsEmptyHalf(t *testing.T) {
	doc := makePDF(t, 2)

	for _, tc := range [][2][]byte{{nil, doc}, {doc, nil}, {nil, nil}} {
		_, err := MergePDFs(tc[0], tc[1])
		var appErr *types.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, types.ErrCodeBundleEmpty, appErr.Code)
		assert.Contains(t, appErr.Message, "cannot bundle empty document")
	}
}

func TestMergePDFsPageCountIsSum(t *testing.T) {
	cover := makePDF(t, 2)
	attachment := makePDF(t, 3)

	merged, err := MergePDFs(cover, attachment)
	require.NoError(t, err)
	assert.Equal(t, 5, pageCount(t, merged))
}

type fakeRenderer struct {
	pdf      []byte
	err      error
	rendered []string
}

func (r *fakeRenderer) Render(_ context.Context, templateID string, _ map[string]string) ([]byte, error) {
	r.rendered = append(r.rendered, templateID)
	return r.pdf, r.err
}

type fakeDocStore struct {
	pdf []byte
	err error
}

func (d *fakeDocStore) Download(context.Context, string) ([]byte, error) {
	return d.pdf, d.err
}

func bundledCase(t *testing.T) *types.CaseData {
	t.Helper()
	data := baseCase()
	data.Documents = []types.CaseDocument{{
		Type:     "Directions Notice",
		FileName: "directions.pdf",
		URL:      "https://docs.internal/doc/1",
	}}
	return data
}

func TestComposerBuildsOneLetterPerRecipient(t *testing.T) {
	renderer := &fakeRenderer{pdf: makePDF(t, 1)}
	docs := &fakeDocStore{pdf: makePDF(t, 2)}
	composer := NewComposer(renderer, docs, nopLogger{})

	data := bundledCase(t)
	data.Representative = &types.Party{
		Name:    types.Name{FirstName: "Sam", LastName: "Representative"},
		Address: types.Address{Line1: "2 Agency Way", Town: "Hull", Postcode: "HU1 2AB"},
	}
	nctx := mustContext(t, events.DirectionIssued, data)

	letters, err := composer.Compose(context.Background(), nctx, "")
	require.NoError(t, err)
	require.Len(t, letters, 2)
	assert.Equal(t, "Ada Nowak", letters[0].RecipientName)
	assert.Equal(t, "Sam Representative", letters[1].RecipientName)
	assert.Equal(t, 3, pageCount(t, letters[0].PDF), "cover plus attachment pages")
	assert.Len(t, renderer.rendered, 2, "each recipient gets their own cover")
}

func TestComposerMissingDocumentFails(t *testing.T) {
	composer := NewComposer(&fakeRenderer{pdf: makePDF(t, 1)}, &fakeDocStore{pdf: makePDF(t, 1)}, nopLogger{})

	data := baseCase() // no documents on the case
	nctx := mustContext(t, events.DirectionIssued, data)

	_, err := composer.Compose(context.Background(), nctx, "")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundDocument, appErr.Code)
}

func TestComposerEmptyCoverFailsBundle(t *testing.T) {
	composer := NewComposer(&fakeRenderer{pdf: nil}, &fakeDocStore{pdf: makePDF(t, 1)}, nopLogger{})
	nctx := mustContext(t, events.DirectionIssued, bundledCase(t))

	_, err := composer.Compose(context.Background(), nctx, "")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeBundleEmpty, appErr.Code)
}

func TestComposerCoverTemplateOverride(t *testing.T) {
	renderer := &fakeRenderer{pdf: makePDF(t, 1)}
	composer := NewComposer(renderer, &fakeDocStore{pdf: makePDF(t, 1)}, nopLogger{})
	nctx := mustContext(t, events.DirectionIssued, bundledCase(t))

	_, err := composer.Compose(context.Background(), nctx, "")
	require.NoError(t, err)
	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, "TB-SCS-LET-ENG-Cover-Sheet.docx", renderer.rendered[0],
		"no override falls back to the event's fixed cover")

	renderer.rendered = nil
	_, err = composer.Compose(context.Background(), nctx, "TB-SCS-LET-ENG-Directions.docx")
	require.NoError(t, err)
	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, "TB-SCS-LET-ENG-Directions.docx", renderer.rendered[0])
}
