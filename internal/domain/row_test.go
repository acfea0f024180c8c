package domain

import "testing"

func TestRowFromMapCommonFields(t *testing.T) {
	t.Parallel()

	record := map[string]string{
		"phone":             " +905551112233 ",
		"msg_type":          "template",
		"template":          "order_update",
		"lang":              "en_US",
		"header_type":       "image",
		"header_media_path": " /tmp/banner.jpg ",
		"body_params":       "Ali|42",
		"cta0_type":         "URL",
		"cta0_url":          "https://example.com/o/42",
		"button1_type":      "flow",
		"button1_flow_token": "tok-1",
	}

	row := RowFromMap(record)

	if row.Phone != "+905551112233" {
		t.Fatalf("Phone = %q, want trimmed number", row.Phone)
	}
	if row.HeaderMediaPath != "/tmp/banner.jpg" {
		t.Fatalf("HeaderMediaPath = %q, want trimmed path", row.HeaderMediaPath)
	}
	if row.CTAs[0].Type != "url" {
		t.Fatalf("CTAs[0].Type = %q, want lowercased url", row.CTAs[0].Type)
	}
	if row.CTAs[0].URL != "https://example.com/o/42" {
		t.Fatalf("CTAs[0].URL = %q", row.CTAs[0].URL)
	}
	if row.Buttons[1].FlowToken != "tok-1" {
		t.Fatalf("Buttons[1].FlowToken = %q, want tok-1", row.Buttons[1].FlowToken)
	}
	if !row.CTAs[1].IsZero() {
		t.Fatal("CTAs[1] should be zero")
	}
}

func TestRowKindDefaultsToTemplate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		msgType string
		want    MessageKind
	}{
		{"", KindTemplate},
		{"template", KindTemplate},
		{" Interactive ", KindInteractive},
		{"something-else", KindTemplate},
	}

	for _, tc := range cases {
		row := Row{MsgType: tc.msgType}
		if got := row.Kind(); got != tc.want {
			t.Errorf("Kind(%q) = %q, want %q", tc.msgType, got, tc.want)
		}
	}
}

func TestStatusParsing(t *testing.T) {
	t.Parallel()

	st, err := ParseStatusFromString(" SENT ")
	if err != nil {
		t.Fatalf("ParseStatusFromString() error = %v", err)
	}
	if st != StatusSent {
		t.Fatalf("status = %q, want sent", st)
	}

	if _, err := ParseStatusFromString("bogus"); err == nil {
		t.Fatal("expected error for invalid status")
	}

	if !StatusDryRun.Delivered() {
		t.Fatal("dry_run should count as delivered")
	}
	if StatusSkip.Delivered() {
		t.Fatal("skip should not count as delivered")
	}
}
