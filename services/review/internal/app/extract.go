package app

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"edureview/pkg/domain"
)

// PrepareContent normalizes submitted content into reviewable plain text.
// HTML markup is stripped to its text; PDF uploads (raw bytes) are extracted
// page by page. Other categories pass through with whitespace normalized.
func PrepareContent(content domain.Content, raw []byte) (domain.Content, error) {
	switch content.Category {
	case domain.ContentHTML:
		text, err := extractHTMLText(content.Text)
		if err != nil {
			return domain.Content{}, fmt.Errorf("extract html: %w", err)
		}
		content.Text = text
	case domain.ContentPDF:
		if len(raw) == 0 {
			return domain.Content{}, fmt.Errorf("pdf content requires raw document data")
		}
		text, err := extractPDFText(raw)
		if err != nil {
			return domain.Content{}, fmt.Errorf("extract pdf: %w", err)
		}
		content.Text = text
	default:
		content.Text = strings.TrimSpace(content.Text)
	}
	if content.Text == "" {
		return domain.Content{}, fmt.Errorf("content has no reviewable text")
	}
	return content, nil
}

func extractHTMLText(markup string) (string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", err
	}
	return normalizeText(nodeText(doc)), nil
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var buf strings.Builder
	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	text := normalizeText(buf.String())
	if text == "" {
		return "", fmt.Errorf("no text extracted from pdf")
	}
	return text, nil
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
			buf.WriteString(" ")
		case html.ElementNode:
			if node.Data == "script" || node.Data == "style" {
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if node.Type == html.ElementNode && (node.Data == "p" || node.Data == "br" || node.Data == "div" || node.Data == "li") {
			buf.WriteString(" ")
		}
	}
	walk(n)
	return buf.String()
}
