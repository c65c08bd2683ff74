package slidefill

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsawler/slidefill/convert"
	"github.com/tsawler/slidefill/errs"
	"github.com/tsawler/slidefill/internal/logging"
	"github.com/tsawler/slidefill/internal/testutil"
	"github.com/tsawler/slidefill/pptx"
)

func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	return testutil.WritePPTX(t, dir, "template.pptx", testutil.Deck{Slides: []string{
		testutil.TextBox(2, "Greeting", nil, testutil.Para{"Hello {{name}}"}) +
			testutil.TextBox(3, "Logo", &testutil.Rect{X: 10, Y: 20, W: 300, H: 400}, testutil.Para{"{{logo}}"}),
		testutil.TextBox(2, "Footer", nil, testutil.Para{"{{city}}"}),
	}})
}

func slideText(t *testing.T, path string, i int) string {
	t.Helper()
	p, err := pptx.Open(path)
	if err != nil {
		t.Fatalf("Open(%s) error = %v", path, err)
	}
	return p.Slides()[i].Text()
}

func TestOpen(t *testing.T) {
	f := Open("template.pptx")
	if f == nil {
		t.Fatal("expected non-nil Filler")
	}
	if f.template != "template.pptx" {
		t.Errorf("template = %q", f.template)
	}
	if f.options.groupDepth != 1 {
		t.Errorf("default group depth = %d, want 1", f.options.groupDepth)
	}
}

func TestSaveFromSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir)
	words := testutil.WriteWorkbook(t, dir, "words.xlsx", "", [][]any{
		{"Start Word", "End Word"},
		{"{{name}}", "World"},
		{"{{city}}", "Seoul"},
	})
	out := filepath.Join(dir, "out.pptx")

	res := Open(tmpl).Replacements(words).Logger(logging.Discard()).Save(out)
	if !res.Success {
		t.Fatalf("Save failed: %s", res.Error)
	}
	if res.PageCount != 2 || res.PairCount != 2 {
		t.Errorf("got pages=%d pairs=%d, want 2/2", res.PageCount, res.PairCount)
	}
	if got := slideText(t, out, 0); got != "Hello World\n{{logo}}" {
		t.Errorf("slide 1 text = %q", got)
	}
	if got := slideText(t, out, 1); got != "Seoul" {
		t.Errorf("slide 2 text = %q", got)
	}
}

func TestSaveWithPairsAndImages(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir)
	logo := testutil.WritePNG(t, dir, "logo.png", 2, 2)
	out := filepath.Join(dir, "out.pptx")

	var states []convert.State
	res := Open(tmpl).
		Replace("{{name}}", "Ada").
		Replace("{{city}}", "London").
		ImagesJSON(`{"{{logo}}": "` + filepath.ToSlash(logo) + `"}`).
		Observe(func(_, to convert.State) { states = append(states, to) }).
		Logger(logging.Discard()).
		Save(out)
	if !res.Success {
		t.Fatalf("Save failed: %s", res.Error)
	}
	if res.ImagesInserted != 1 {
		t.Errorf("ImagesInserted = %d, want 1", res.ImagesInserted)
	}
	if got := slideText(t, out, 0); got != "Hello Ada" {
		t.Errorf("slide 1 text = %q", got)
	}
	if len(states) == 0 || states[len(states)-1] != convert.Done {
		t.Errorf("states = %v", states)
	}
}

func TestChainImmutability(t *testing.T) {
	base := Open("template.pptx").Replace("a", "b")

	withImage := base.Image("{{x}}", "x.png")
	deeper := base.GroupDepth(3)
	more := base.Replace("c", "d")

	if len(base.options.images) != 0 {
		t.Error("base filler should have no images")
	}
	if base.options.groupDepth != 1 {
		t.Error("base filler group depth changed")
	}
	if len(base.options.pairs) != 1 {
		t.Errorf("base pairs = %v", base.options.pairs)
	}
	if len(withImage.options.images) != 1 || deeper.options.groupDepth != 3 || len(more.options.pairs) != 2 {
		t.Error("derived fillers did not receive their options")
	}
}

func TestReplacementsClearsPairs(t *testing.T) {
	f := Open("t.pptx").Replace("a", "b").Replacements("words.xlsx")
	req := f.request("out.pptx")
	if req.Replacements != nil || req.MappingPath != "words.xlsx" {
		t.Errorf("request = %+v", req)
	}
}

func TestAccumulatedError(t *testing.T) {
	res := Open("template.pptx").ImagesJSON(`[1, 2]`).Replace("a", "b").Save("out.pptx")
	if res.Success {
		t.Fatal("expected failure")
	}
	if !errors.Is(res.Err, convert.ErrImageMapping) {
		t.Errorf("Err = %v, want ErrImageMapping", res.Err)
	}
	if res.State != convert.Failed {
		t.Errorf("State = %v", res.State)
	}

	res = Open("template.pptx").GroupDepth(-1).Save("out.pptx")
	if res.Success || res.Err == nil {
		t.Error("expected negative group depth to fail")
	}
}

func TestSaveFailures(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir)
	words := testutil.WriteWorkbook(t, dir, "words.xlsx", "", [][]any{{"Name", "Value"}, {"a", "b"}})

	res := Open(tmpl).Replacements(words).Logger(logging.Discard()).Save(filepath.Join(dir, "out.pptx"))
	if res.Success || !errors.Is(res.Err, errs.ErrSchema) {
		t.Errorf("expected schema failure, got %+v", res)
	}

	res = Open(tmpl).Replace("a", "b").Limits(0, 1).Logger(logging.Discard()).Save(filepath.Join(dir, "out.pptx"))
	if res.Success || !errors.Is(res.Err, errs.ErrLimit) {
		t.Errorf("expected slide limit failure, got %+v", res)
	}

	res = Open(tmpl).Logger(logging.Discard()).Save(filepath.Join(dir, "out.pptx"))
	if res.Success || !errors.Is(res.Err, errs.ErrEmptyMapping) {
		t.Errorf("expected empty mapping failure, got %+v", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.pptx")); !os.IsNotExist(err) {
		t.Error("no output should be written on failure")
	}
}

func TestPageCountAndInspect(t *testing.T) {
	tmpl := writeTemplate(t, t.TempDir())

	n, err := Open(tmpl).PageCount()
	if err != nil || n != 2 {
		t.Errorf("PageCount() = %d, %v", n, err)
	}
	if got := Must(PageCount(tmpl)); got != 2 {
		t.Errorf("PageCount = %d", got)
	}

	info, err := Open(tmpl).Inspect()
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if info.Slides != 2 {
		t.Errorf("info.Slides = %d", info.Slides)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.pptx")).PageCount(); !errors.Is(err, errs.ErrLoad) {
		t.Errorf("expected LoadError, got %v", err)
	}
}

func TestMust(t *testing.T) {
	result := Must("hello", nil)
	if result != "hello" {
		t.Errorf("expected 'hello', got %q", result)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected Must to panic on error")
		}
	}()
	Must("", os.ErrNotExist)
}
