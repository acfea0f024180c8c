package domain

import (
	"fmt"
	"strings"
)

// MaxIndexedButtons bounds the cta{n}_* and button{n}_* column families.
const MaxIndexedButtons = 10

// MessageKind selects the payload family built for a row.
type MessageKind string

const (
	KindTemplate    MessageKind = "template"
	KindInteractive MessageKind = "interactive"
)

// CTA is one indexed call-to-action descriptor (cta{n}_* columns).
type CTA struct {
	Type       string
	Text       string
	URL        string
	Phone      string
	CouponCode string
}

func (c CTA) IsZero() bool { return c.Type == "" }

// FlowButton is one indexed flow-button descriptor (button{n}_* columns).
type FlowButton struct {
	Type           string
	Index          string
	FlowToken      string
	FlowAction     string
	NavigateScreen string
}

func (b FlowButton) IsZero() bool { return b.Type == "" }

// Row is one input record: the source of truth for a single send attempt.
// Immutable once materialized; field values keep the raw column text and are
// interpreted by the row processor.
type Row struct {
	Phone           string
	MsgType         string
	Template        string
	Lang            string
	HeaderType      string
	HeaderText      string
	HeaderMediaPath string
	HeaderMediaURL  string
	HeaderMediaID   string
	BodyParams      string
	ButtonParams    string
	BodyText        string
	FooterText      string
	Buttons         [MaxIndexedButtons]FlowButton
	CTAs            [MaxIndexedButtons]CTA

	// Source keeps the original record for outcome logging.
	Source map[string]string
}

// Kind returns the message kind for the row, defaulting to template.
func (r Row) Kind() MessageKind {
	kind := strings.ToLower(strings.TrimSpace(r.MsgType))
	if kind == string(KindInteractive) {
		return KindInteractive
	}
	return KindTemplate
}

// RowFromMap materializes a Row from a header-keyed record, trimming every
// common field and collecting the indexed descriptor families.
func RowFromMap(record map[string]string) Row {
	get := func(key string) string {
		return strings.TrimSpace(record[key])
	}

	row := Row{
		Phone:           get("phone"),
		MsgType:         get("msg_type"),
		Template:        get("template"),
		Lang:            get("lang"),
		HeaderType:      get("header_type"),
		HeaderText:      record["header_text"],
		HeaderMediaPath: get("header_media_path"),
		HeaderMediaURL:  get("header_media_url"),
		HeaderMediaID:   get("header_media_id"),
		BodyParams:      record["body_params"],
		ButtonParams:    record["button_params"],
		BodyText:        get("body_text"),
		FooterText:      get("footer_text"),
		Source:          record,
	}

	for n := 0; n < MaxIndexedButtons; n++ {
		row.CTAs[n] = CTA{
			Type:       strings.ToLower(get(fmt.Sprintf("cta%d_type", n))),
			Text:       get(fmt.Sprintf("cta%d_text", n)),
			URL:        get(fmt.Sprintf("cta%d_url", n)),
			Phone:      get(fmt.Sprintf("cta%d_phone", n)),
			CouponCode: get(fmt.Sprintf("cta%d_coupon_code", n)),
		}
		row.Buttons[n] = FlowButton{
			Type:           strings.ToLower(get(fmt.Sprintf("button%d_type", n))),
			Index:          get(fmt.Sprintf("button%d_index", n)),
			FlowToken:      get(fmt.Sprintf("button%d_flow_token", n)),
			FlowAction:     get(fmt.Sprintf("button%d_flow_action", n)),
			NavigateScreen: get(fmt.Sprintf("button%d_navigate_screen", n)),
		}
	}

	return row
}
