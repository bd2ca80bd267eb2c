package app

import (
	"strings"
	"testing"

	"edureview/pkg/domain"
)

func TestPrepareContentStripsHTML(t *testing.T) {
	content := domain.Content{
		ID:       "c1",
		Category: domain.ContentHTML,
		Text:     "<html><head><style>p{color:red}</style></head><body><p>First  paragraph.</p><script>alert(1)</script><li>Item</li></body></html>",
	}
	prepared, err := PrepareContent(content, nil)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if strings.Contains(prepared.Text, "alert") || strings.Contains(prepared.Text, "color:red") {
		t.Fatalf("script/style leaked into text: %q", prepared.Text)
	}
	if !strings.Contains(prepared.Text, "First paragraph.") || !strings.Contains(prepared.Text, "Item") {
		t.Fatalf("text content lost: %q", prepared.Text)
	}
}

func TestPrepareContentNormalizesPlainText(t *testing.T) {
	content := domain.Content{ID: "c1", Category: domain.ContentText, Text: "  padded text  "}
	prepared, err := PrepareContent(content, nil)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if prepared.Text != "padded text" {
		t.Fatalf("text %q", prepared.Text)
	}
}

func TestPrepareContentRejectsEmpty(t *testing.T) {
	if _, err := PrepareContent(domain.Content{ID: "c1", Category: domain.ContentText, Text: "   "}, nil); err == nil {
		t.Fatal("expected empty content to fail")
	}
	if _, err := PrepareContent(domain.Content{ID: "c1", Category: domain.ContentPDF}, nil); err == nil {
		t.Fatal("expected pdf without data to fail")
	}
}
