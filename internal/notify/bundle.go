package notify

import (
	"bytes"
	"context"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"appealnotify/internal/events"
	"appealnotify/internal/types"
)

// Letter is one recipient's composed postal artifact, ready for the
// precompiled-letter send path.
type Letter struct {
	RecipientName string
	Address       types.Address
	PDF           []byte
}

// Composer builds bundled letters for events that attach an existing case
// document behind a generated cover letter. Each recipient gets an
// independently composed copy: the representative's bundle failing must not
// block the appellant's.
type Composer struct {
	renderer types.CoverLetterRenderer
	docs     types.DocumentStore
	logger   types.Logger
}

func NewComposer(renderer types.CoverLetterRenderer, docs types.DocumentStore, logger types.Logger) *Composer {
	return &Composer{renderer: renderer, docs: docs, logger: logger}
}

// Compose builds the bundled letters for the event: one addressed to the
// appellant (or their appointee), plus one to the representative when the
// case has one. Either half of a bundle being empty is a hard failure for
// that recipient. A non-empty coverTemplate overrides the event's fixed
// cover; callers pass the registry-resolved docmosis id when one exists.
func (c *Composer) Compose(ctx context.Context, nctx Context, coverTemplate string) ([]Letter, error) {
	f := events.FlagsFor(nctx.Event())
	data := nctx.New()
	if coverTemplate == "" {
		coverTemplate = f.CoverTemplateID
	}

	doc := data.DocumentByType(f.DocumentLabel)
	if doc == nil {
		return nil, types.NewAppError(types.ErrCodeNotFoundDocument,
			"case holds no document for bundling", nil).WithDetail("label", f.DocumentLabel)
	}
	attachment, err := c.docs.Download(ctx, doc.URL)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamDocuments,
			"failed to download bundle attachment", err)
	}

	recipients := []*types.Party{RecipientParty(nctx, types.RoleAppellant)}
	if data.Representative != nil {
		recipients = append(recipients, data.Representative)
	}

	letters := make([]Letter, 0, len(recipients))
	for _, party := range recipients {
		letter, err := c.composeFor(ctx, nctx, coverTemplate, party, attachment)
		if err != nil {
			return nil, err
		}
		letters = append(letters, letter)
	}
	return letters, nil
}

func (c *Composer) composeFor(ctx context.Context, nctx Context, coverTemplate string,
	party *types.Party, attachment []byte) (Letter, error) {
	placeholders := coverPlaceholders(nctx, party)
	cover, err := c.renderer.Render(ctx, coverTemplate, placeholders)
	if err != nil {
		return Letter{}, types.NewAppError(types.ErrCodeUpstreamPDF,
			"failed to render cover letter", err)
	}

	merged, err := MergePDFs(cover, attachment)
	if err != nil {
		return Letter{}, err
	}
	return Letter{
		RecipientName: party.Name.FullName(),
		Address:       party.Address,
		PDF:           merged,
	}, nil
}

// MergePDFs concatenates the cover letter and the attachment into one PDF,
// cover first. Either input being empty fails the bundle.
func MergePDFs(cover, attachment []byte) ([]byte, error) {
	if len(cover) == 0 || len(attachment) == 0 {
		return nil, types.NewAppError(types.ErrCodeBundleEmpty,
			"cannot bundle empty document", nil)
	}
	var buf bytes.Buffer
	parts := []io.ReadSeeker{bytes.NewReader(cover), bytes.NewReader(attachment)}
	if err := api.MergeRaw(parts, &buf, false, nil); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamPDF,
			"failed to merge letter bundle", err)
	}
	return buf.Bytes(), nil
}

func coverPlaceholders(nctx Context, party *types.Party) map[string]string {
	data := nctx.New()
	return map[string]string{
		"name":             party.Name.FullName(),
		"address_line_1":   party.Address.Line1,
		"address_line_2":   party.Address.Line2,
		"address_town":     party.Address.Town,
		"address_county":   party.Address.County,
		"address_postcode": party.Address.Postcode,
		"appeal_ref":       data.CaseReference,
		"benefit":          data.Benefit,
	}
}
