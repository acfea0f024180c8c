package processor

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/kursadbilgin/wabatch/internal/domain"
	"github.com/kursadbilgin/wabatch/internal/mediacache"
)

type fakeUploader struct {
	uploadFn func(ctx context.Context, path string) (mediacache.Asset, error)
	calls    int
}

func (f *fakeUploader) Upload(ctx context.Context, path string) (mediacache.Asset, error) {
	f.calls++
	if f.uploadFn == nil {
		return mediacache.Asset{}, fmt.Errorf("unexpected upload of %s", path)
	}
	return f.uploadFn(ctx, path)
}

func TestProcessMissingPhoneSkips(t *testing.T) {
	t.Parallel()

	p := New(&fakeUploader{})
	verdict := p.Process(context.Background(), domain.Row{Template: "welcome"})

	if verdict.Kind != domain.VerdictSkip {
		t.Fatalf("kind = %s, want skip", verdict.Kind)
	}
	if verdict.Reason != "missing phone" {
		t.Fatalf("reason = %q, want missing phone", verdict.Reason)
	}
}

func TestProcessInteractiveCopyCodeSkips(t *testing.T) {
	t.Parallel()

	row := domain.Row{
		Phone:    "+905551112233",
		MsgType:  "interactive",
		BodyText: "Use your code",
	}
	row.CTAs[0] = domain.CTA{Type: "copy_code", CouponCode: "SAVE10"}

	p := New(&fakeUploader{})
	verdict := p.Process(context.Background(), row)

	if verdict.Kind != domain.VerdictSkip {
		t.Fatalf("kind = %s, want skip (not error, not ready)", verdict.Kind)
	}
}

func TestProcessInteractiveNeedsBodyAndCTA(t *testing.T) {
	t.Parallel()

	p := New(&fakeUploader{})

	verdict := p.Process(context.Background(), domain.Row{Phone: "+905551112233", MsgType: "interactive"})
	if verdict.Kind != domain.VerdictSkip {
		t.Fatalf("kind = %s, want skip", verdict.Kind)
	}
}

func TestProcessInteractiveUsesFirstCTA(t *testing.T) {
	t.Parallel()

	row := domain.Row{
		Phone:    "+905551112233",
		MsgType:  "interactive",
		BodyText: "See your order",
	}
	// Index 2 is the first populated descriptor; index 5 must be ignored.
	row.CTAs[2] = domain.CTA{Type: "url", URL: "https://example.com/o/1", Text: "Open"}
	row.CTAs[5] = domain.CTA{Type: "call", Phone: "+908502220000"}

	p := New(&fakeUploader{})
	verdict := p.Process(context.Background(), row)

	if verdict.Kind != domain.VerdictReady {
		t.Fatalf("kind = %s (%s), want ready", verdict.Kind, verdict.Reason)
	}
	interactive := verdict.Payload["interactive"].(map[string]any)
	if interactive["type"] != "cta_url" {
		t.Fatalf("interactive type = %v, want cta_url from first CTA", interactive["type"])
	}
}

func TestProcessInteractiveCallCTA(t *testing.T) {
	t.Parallel()

	row := domain.Row{
		Phone:    "+905551112233",
		MsgType:  "interactive",
		BodyText: "Talk to us",
	}
	row.CTAs[0] = domain.CTA{Type: "call", Phone: "+908502220000"}

	p := New(&fakeUploader{})
	verdict := p.Process(context.Background(), row)

	if verdict.Kind != domain.VerdictReady {
		t.Fatalf("kind = %s (%s), want ready", verdict.Kind, verdict.Reason)
	}
	interactive := verdict.Payload["interactive"].(map[string]any)
	if interactive["type"] != "cta_call" {
		t.Fatalf("interactive type = %v, want cta_call", interactive["type"])
	}
}

func TestProcessInteractiveBuildFailure(t *testing.T) {
	t.Parallel()

	row := domain.Row{
		Phone:    "+905551112233",
		MsgType:  "interactive",
		BodyText: "See this",
	}
	// URL CTA without a URL fails inside the builder, not as a skip.
	row.CTAs[0] = domain.CTA{Type: "url"}

	p := New(&fakeUploader{})
	verdict := p.Process(context.Background(), row)

	if verdict.Kind != domain.VerdictError {
		t.Fatalf("kind = %s, want error", verdict.Kind)
	}
	if !strings.HasPrefix(verdict.Reason, "build_failed: ") {
		t.Fatalf("reason = %q, want build_failed prefix", verdict.Reason)
	}
}

func TestProcessTemplateMissingNameSkips(t *testing.T) {
	t.Parallel()

	p := New(&fakeUploader{})
	verdict := p.Process(context.Background(), domain.Row{Phone: "+905551112233"})

	if verdict.Kind != domain.VerdictSkip {
		t.Fatalf("kind = %s, want skip", verdict.Kind)
	}
}

func TestProcessTemplateMediaUploadOnce(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{
		uploadFn: func(ctx context.Context, path string) (mediacache.Asset, error) {
			if path != "/tmp/banner.jpg" {
				t.Fatalf("upload path = %q", path)
			}
			return mediacache.Asset{ID: "media-55", MimeType: "image/jpeg", Path: path}, nil
		},
	}

	row := domain.Row{
		Phone:           "+905551112233",
		Template:        "promo",
		HeaderType:      "image",
		HeaderMediaPath: "/tmp/banner.jpg",
	}

	p := New(uploader)
	verdict := p.Process(context.Background(), row)

	if verdict.Kind != domain.VerdictReady {
		t.Fatalf("kind = %s (%s), want ready", verdict.Kind, verdict.Reason)
	}
	if uploader.calls != 1 {
		t.Fatalf("upload calls = %d, want exactly 1", uploader.calls)
	}

	tpl := verdict.Payload["template"].(map[string]any)
	components := tpl["components"].([]map[string]any)
	header := components[0]
	media := header["parameters"].([]map[string]any)[0]["image"].(map[string]any)
	if media["id"] != "media-55" {
		t.Fatalf("media id = %v, want uploaded asset id, not the path", media["id"])
	}
}

func TestProcessTemplateMediaIDSkipsUpload(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{}
	row := domain.Row{
		Phone:           "+905551112233",
		Template:        "promo",
		HeaderType:      "image",
		HeaderMediaID:   "media-77",
		HeaderMediaPath: "/tmp/banner.jpg",
	}

	p := New(uploader)
	verdict := p.Process(context.Background(), row)

	if verdict.Kind != domain.VerdictReady {
		t.Fatalf("kind = %s (%s), want ready", verdict.Kind, verdict.Reason)
	}
	if uploader.calls != 0 {
		t.Fatalf("upload calls = %d, want 0 when media id present", uploader.calls)
	}
}

func TestProcessTemplateUploadFailure(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{
		uploadFn: func(ctx context.Context, path string) (mediacache.Asset, error) {
			return mediacache.Asset{}, fmt.Errorf("remote rejected upload")
		},
	}

	row := domain.Row{
		Phone:           "+905551112233",
		Template:        "promo",
		HeaderType:      "video",
		HeaderMediaPath: "/tmp/clip.mp4",
	}

	p := New(uploader)
	verdict := p.Process(context.Background(), row)

	if verdict.Kind != domain.VerdictError {
		t.Fatalf("kind = %s, want error", verdict.Kind)
	}
	if !strings.HasPrefix(verdict.Reason, "media_upload_failed: ") {
		t.Fatalf("reason = %q, want media_upload_failed prefix", verdict.Reason)
	}
}

func TestProcessTemplateCopyCodeRequiresCoupon(t *testing.T) {
	t.Parallel()

	row := domain.Row{
		Phone:    "+905551112233",
		Template: "promo",
	}
	row.CTAs[3] = domain.CTA{Type: "copy_code"}

	p := New(&fakeUploader{})
	verdict := p.Process(context.Background(), row)

	if verdict.Kind != domain.VerdictError {
		t.Fatalf("kind = %s, want error", verdict.Kind)
	}
	if verdict.Reason != "cta3_coupon_code is required for copy_code buttons" {
		t.Fatalf("reason = %q", verdict.Reason)
	}
}

func TestProcessTemplateInfersButtonParamsFromURLCTAs(t *testing.T) {
	t.Parallel()

	row := domain.Row{
		Phone:    "+905551112233",
		Template: "order_update",
	}
	row.CTAs[0] = domain.CTA{Type: "url", URL: "order/42"}

	p := New(&fakeUploader{})
	verdict := p.Process(context.Background(), row)

	if verdict.Kind != domain.VerdictReady {
		t.Fatalf("kind = %s (%s), want ready", verdict.Kind, verdict.Reason)
	}
	tpl := verdict.Payload["template"].(map[string]any)
	components := tpl["components"].([]map[string]any)
	if len(components) != 1 || components[0]["sub_type"] != "url" {
		t.Fatalf("components = %#v, want one url button", components)
	}
}

func TestSplitParams(t *testing.T) {
	t.Parallel()

	if got := SplitParams(" A | B |C "); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Fatalf("SplitParams() = %#v", got)
	}
	if got := SplitParams("  "); got != nil {
		t.Fatalf("SplitParams(blank) = %#v, want nil", got)
	}
}

func TestSplitButtonGroups(t *testing.T) {
	t.Parallel()

	got := SplitButtonGroups("A|B, C ,")
	want := [][]string{{"A", "B"}, {"C"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitButtonGroups() = %#v, want %#v", got, want)
	}
	if got := SplitButtonGroups(""); got != nil {
		t.Fatalf("SplitButtonGroups(empty) = %#v, want nil", got)
	}
}
