// Package processor turns one input row into a send-ready payload or a
// skip/error verdict. It is pure apart from the conditional media upload.
package processor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kursadbilgin/wabatch/internal/client"
	"github.com/kursadbilgin/wabatch/internal/domain"
	"github.com/kursadbilgin/wabatch/internal/mediacache"
)

// MediaUploader resolves a local file into a provider asset id. The
// implementation owns its own caching and locking.
type MediaUploader interface {
	Upload(ctx context.Context, path string) (mediacache.Asset, error)
}

type Processor struct {
	uploader MediaUploader
}

func New(uploader MediaUploader) *Processor {
	return &Processor{uploader: uploader}
}

// Process produces exactly one verdict per row. Safe for concurrent rows.
func (p *Processor) Process(ctx context.Context, row domain.Row) domain.Verdict {
	if row.Phone == "" {
		return domain.Skip("missing phone")
	}

	if row.Kind() == domain.KindInteractive {
		return p.processInteractive(row)
	}
	return p.processTemplate(ctx, row)
}

func (p *Processor) processInteractive(row domain.Row) domain.Verdict {
	var cta *domain.CTA
	for n := 0; n < domain.MaxIndexedButtons; n++ {
		if !row.CTAs[n].IsZero() {
			cta = &row.CTAs[n]
			break
		}
	}

	if row.BodyText == "" || cta == nil {
		return domain.Skip("interactive needs body_text and at least one CTA")
	}
	if cta.Type == "copy_code" {
		return domain.Skip("interactive CTA does not support copy_code")
	}

	var (
		payload map[string]any
		err     error
	)
	if cta.Type == "call" {
		payload, err = client.BuildInteractiveCTACall(row.Phone, row.BodyText, cta.Phone, cta.Text, row.FooterText)
	} else {
		payload, err = client.BuildInteractiveCTAURL(row.Phone, row.BodyText, cta.URL, cta.Text, row.FooterText)
	}
	if err != nil {
		return domain.Errored(fmt.Sprintf("build_failed: %v", err))
	}
	return domain.Ready(payload)
}

func (p *Processor) processTemplate(ctx context.Context, row domain.Row) domain.Verdict {
	if row.Template == "" {
		return domain.Skip("missing template for template msg_type")
	}

	headerType := strings.ToLower(row.HeaderType)
	if headerType == "" {
		headerType = "none"
	}

	headerMediaID := row.HeaderMediaID
	switch headerType {
	case "image", "video", "document":
		if headerMediaID == "" && row.HeaderMediaURL == "" && row.HeaderMediaPath != "" {
			asset, err := p.uploader.Upload(ctx, row.HeaderMediaPath)
			if err != nil {
				return domain.Errored(fmt.Sprintf("media_upload_failed: %v", err))
			}
			headerMediaID = asset.ID
		}
	}

	buttonParams := SplitButtonGroups(row.ButtonParams)
	if buttonParams == nil {
		buttonParams = inferButtonParamsFromCTAs(row)
	}

	var flowButtons []domain.FlowButton
	for n := 0; n < domain.MaxIndexedButtons; n++ {
		fb := row.Buttons[n]
		if fb.Type != "flow" {
			continue
		}
		if fb.Index == "" {
			fb.Index = strconv.Itoa(n)
		}
		flowButtons = append(flowButtons, fb)
	}

	var copyCodeButtons []client.CopyCodeButton
	for n := 0; n < domain.MaxIndexedButtons; n++ {
		cta := row.CTAs[n]
		if cta.Type != "copy_code" {
			continue
		}
		if cta.CouponCode == "" {
			return domain.Errored(fmt.Sprintf("cta%d_coupon_code is required for copy_code buttons", n))
		}
		copyCodeButtons = append(copyCodeButtons, client.CopyCodeButton{
			Index:      strconv.Itoa(len(copyCodeButtons)),
			CouponCode: cta.CouponCode,
		})
	}

	components, err := client.BuildTemplateComponents(client.TemplateComponents{
		HeaderType:      headerType,
		HeaderText:      row.HeaderText,
		HeaderMediaID:   headerMediaID,
		HeaderMediaLink: row.HeaderMediaURL,
		BodyParams:      SplitParams(row.BodyParams),
		ButtonParams:    buttonParams,
		FlowButtons:     flowButtons,
		CopyCodeButtons: copyCodeButtons,
	})
	if err != nil {
		return domain.Errored(fmt.Sprintf("build_failed: %v", err))
	}

	payload, err := client.BuildTemplatePayload(row.Phone, row.Template, row.Lang, components)
	if err != nil {
		return domain.Errored(fmt.Sprintf("build_failed: %v", err))
	}

	return domain.Ready(payload)
}

// SplitParams splits a pipe-separated parameter list, trimming each entry.
// Empty input yields nil.
func SplitParams(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, "|")
	params := make([]string, 0, len(parts))
	for _, p := range parts {
		params = append(params, strings.TrimSpace(p))
	}
	return params
}

// SplitButtonGroups splits comma-separated groups of pipe-separated values,
// e.g. "A|B,C" -> [[A B] [C]]. Blank groups are dropped.
func SplitButtonGroups(raw string) [][]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var groups [][]string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		groups = append(groups, SplitParams(part))
	}
	return groups
}

// inferButtonParamsFromCTAs treats populated URL-type CTA columns as dynamic
// button parameters so they reach the payload even when the button_params
// column is empty.
func inferButtonParamsFromCTAs(row domain.Row) [][]string {
	var groups [][]string
	for n := 0; n < domain.MaxIndexedButtons; n++ {
		cta := row.CTAs[n]
		if cta.Type != "url" || cta.URL == "" {
			continue
		}
		groups = append(groups, []string{cta.URL})
	}
	return groups
}
