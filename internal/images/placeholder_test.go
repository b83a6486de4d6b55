package images

import (
	"bytes"
	"image"
	"strings"
	"testing"
)

func TestRenderPlaceholderGeometry(t *testing.T) {
	t.Parallel()

	data, err := renderPlaceholder("Punjab Floods Update", 300, 200, 85)
	if err != nil {
		t.Fatalf("renderPlaceholder error: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode placeholder: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg, got %s", format)
	}
	if img.Bounds().Dx() != 300 || img.Bounds().Dy() != 200 {
		t.Fatalf("unexpected size %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestRenderPlaceholderDeterministic(t *testing.T) {
	t.Parallel()

	a, err := renderPlaceholder("Same Headline", 300, 200, 85)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	b, err := renderPlaceholder("Same Headline", 300, 200, 85)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("same title must render identical placeholders")
	}
}

func TestRenderPlaceholderInvalidSize(t *testing.T) {
	t.Parallel()

	if _, err := renderPlaceholder("x", 0, 200, 85); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestWrapTitle(t *testing.T) {
	t.Parallel()

	lines := wrapTitle("one two three four five six seven eight nine ten", 10)
	if len(lines) > maxPlaceholderLines {
		t.Fatalf("too many lines: %d", len(lines))
	}
	for _, line := range lines {
		if len(line) > 10 {
			t.Fatalf("line %q exceeds limit", line)
		}
	}

	single := wrapTitle("short", 40)
	if len(single) != 1 || single[0] != "short" {
		t.Fatalf("unexpected wrap: %v", single)
	}

	if got := wrapTitle(strings.Repeat("x", 30), 8); len(got) != 1 || got[0] != "xxxxxxxx" {
		t.Fatalf("overlong word not truncated: %v", got)
	}
}
