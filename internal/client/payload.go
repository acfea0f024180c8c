package client

import (
	"fmt"
	"strings"

	"github.com/kursadbilgin/wabatch/internal/domain"
)

const messagingProduct = "whatsapp"

// TemplateComponents collects the inputs for one template message's
// components array.
type TemplateComponents struct {
	HeaderType      string
	HeaderText      string
	HeaderMediaID   string
	HeaderMediaLink string
	BodyParams      []string
	ButtonParams    [][]string
	FlowButtons     []domain.FlowButton
	CopyCodeButtons []CopyCodeButton
}

// CopyCodeButton is one COPY_CODE button entry for a template message.
type CopyCodeButton struct {
	Index      string
	CouponCode string
}

// BuildTemplateComponents assembles the provider's template components array.
// Validation failures wrap domain.ErrValidation.
func BuildTemplateComponents(in TemplateComponents) ([]map[string]any, error) {
	components := make([]map[string]any, 0, 4)

	headerType := strings.ToLower(strings.TrimSpace(in.HeaderType))
	switch headerType {
	case "", "none":
	case "text":
		if in.HeaderText == "" {
			return nil, fmt.Errorf("%w: header_type=text requires header_text", domain.ErrValidation)
		}
		components = append(components, map[string]any{
			"type": "header",
			"parameters": []map[string]any{
				{"type": "text", "text": in.HeaderText},
			},
		})
	case "image", "video", "document":
		media := map[string]any{}
		switch {
		case in.HeaderMediaID != "":
			media["id"] = in.HeaderMediaID
		case in.HeaderMediaLink != "":
			media["link"] = in.HeaderMediaLink
		default:
			return nil, fmt.Errorf("%w: header_type=%s requires media id or link", domain.ErrValidation, headerType)
		}
		components = append(components, map[string]any{
			"type": "header",
			"parameters": []map[string]any{
				{"type": headerType, headerType: media},
			},
		})
	default:
		return nil, fmt.Errorf("%w: unsupported header_type %q", domain.ErrValidation, in.HeaderType)
	}

	if len(in.BodyParams) > 0 {
		params := make([]map[string]any, 0, len(in.BodyParams))
		for _, p := range in.BodyParams {
			params = append(params, map[string]any{"type": "text", "text": p})
		}
		components = append(components, map[string]any{
			"type":       "body",
			"parameters": params,
		})
	}

	// Dynamic URL button parameters, one component per button index.
	for idx, group := range in.ButtonParams {
		if len(group) == 0 {
			continue
		}
		params := make([]map[string]any, 0, len(group))
		for _, p := range group {
			params = append(params, map[string]any{"type": "text", "text": p})
		}
		components = append(components, map[string]any{
			"type":       "button",
			"sub_type":   "url",
			"index":      fmt.Sprintf("%d", idx),
			"parameters": params,
		})
	}

	for _, fb := range in.FlowButtons {
		if fb.FlowToken == "" || fb.FlowAction == "" || fb.NavigateScreen == "" {
			return nil, fmt.Errorf("%w: flow buttons require flow_token, flow_action, navigate_screen", domain.ErrValidation)
		}
		index := fb.Index
		if index == "" {
			index = "0"
		}
		components = append(components, map[string]any{
			"type":     "button",
			"sub_type": "flow",
			"index":    index,
			"parameters": []map[string]any{
				{
					"type": "action",
					"action": map[string]any{
						"flow_token": fb.FlowToken,
						"flow_action_data": map[string]any{
							"flow_action":     fb.FlowAction,
							"navigate_screen": fb.NavigateScreen,
						},
					},
				},
			},
		})
	}

	for _, btn := range in.CopyCodeButtons {
		if btn.CouponCode == "" {
			return nil, fmt.Errorf("%w: copy_code buttons require coupon_code", domain.ErrValidation)
		}
		index := btn.Index
		if index == "" {
			index = "0"
		}
		components = append(components, map[string]any{
			"type":     "button",
			"sub_type": "COPY_CODE",
			"index":    index,
			"parameters": []map[string]any{
				{
					"type":        "coupon_code",
					"coupon_code": btn.CouponCode,
				},
			},
		})
	}

	return components, nil
}

// BuildTemplatePayload builds a template message-send document.
func BuildTemplatePayload(to, template, lang string, components []map[string]any) (map[string]any, error) {
	if to == "" {
		return nil, fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}
	if template == "" {
		return nil, fmt.Errorf("%w: template name is required", domain.ErrValidation)
	}
	if lang == "" {
		lang = "en_US"
	}

	tpl := map[string]any{
		"name":     template,
		"language": map[string]any{"code": lang},
	}
	if len(components) > 0 {
		tpl["components"] = components
	}

	return map[string]any{
		"messaging_product": messagingProduct,
		"to":                to,
		"type":              "template",
		"template":          tpl,
	}, nil
}

// BuildInteractiveCTAURL builds an interactive cta_url message.
func BuildInteractiveCTAURL(to, bodyText, url, displayText, footerText string) (map[string]any, error) {
	if to == "" {
		return nil, fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}
	if bodyText == "" {
		return nil, fmt.Errorf("%w: body text is required", domain.ErrValidation)
	}
	if url == "" {
		return nil, fmt.Errorf("%w: cta url is required", domain.ErrValidation)
	}
	if displayText == "" {
		displayText = "View"
	}

	interactive := map[string]any{
		"type": "cta_url",
		"body": map[string]any{"text": bodyText},
		"action": map[string]any{
			"name": "cta_url",
			"parameters": map[string]any{
				"display_text": displayText,
				"url":          url,
			},
		},
	}
	if footerText != "" {
		interactive["footer"] = map[string]any{"text": footerText}
	}

	return map[string]any{
		"messaging_product": messagingProduct,
		"to":                to,
		"type":              "interactive",
		"interactive":       interactive,
	}, nil
}

// BuildInteractiveCTACall builds an interactive cta_call message.
func BuildInteractiveCTACall(to, bodyText, phoneNumber, displayText, footerText string) (map[string]any, error) {
	if to == "" {
		return nil, fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}
	if bodyText == "" {
		return nil, fmt.Errorf("%w: body text is required", domain.ErrValidation)
	}
	if phoneNumber == "" {
		return nil, fmt.Errorf("%w: cta phone number is required", domain.ErrValidation)
	}
	if displayText == "" {
		displayText = "Call"
	}

	interactive := map[string]any{
		"type": "cta_call",
		"body": map[string]any{"text": bodyText},
		"action": map[string]any{
			"name": "cta_call",
			"parameters": map[string]any{
				"display_text": displayText,
				"phone_number": phoneNumber,
			},
		},
	}
	if footerText != "" {
		interactive["footer"] = map[string]any{"text": footerText}
	}

	return map[string]any{
		"messaging_product": messagingProduct,
		"to":                to,
		"type":              "interactive",
		"interactive":       interactive,
	}, nil
}
