package checker

import (
	"context"
	"testing"
	"time"

	"edureview/pkg/domain"
)

func fixedStalenessChecker(year int) *StalenessChecker {
	c := NewStalenessChecker()
	c.now = func() time.Time {
		return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	}
	return c
}

func TestStalenessFlagsDeprecatedTech(t *testing.T) {
	c := fixedStalenessChecker(2026)
	findings, err := c.Check(context.Background(), textContent("We still build with jQuery and Bower."))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	flagged := map[string]bool{}
	for _, f := range findings {
		flagged[f.OriginalText] = true
		if f.Severity != domain.SeverityHigh {
			t.Fatalf("deprecated tech should be high severity: %+v", f)
		}
		if len(f.Sources) == 0 {
			t.Fatalf("deprecated tech finding missing reason: %+v", f)
		}
	}
	if !flagged["jquery"] || !flagged["bower"] {
		t.Fatalf("missing deprecated tech findings: %v", flagged)
	}
}

func TestStalenessFlagsOldVersions(t *testing.T) {
	c := fixedStalenessChecker(2026)
	findings, err := c.Check(context.Background(), textContent("Install Java 7 and Node 0.x to proceed."))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("expected 2 version findings, got %d: %+v", len(findings), findings)
	}
	for _, f := range findings {
		if f.Severity != domain.SeverityMedium {
			t.Fatalf("version finding should be medium: %+v", f)
		}
	}
}

func TestStalenessDateSeverityScalesWithAge(t *testing.T) {
	c := fixedStalenessChecker(2026)
	findings, err := c.Check(context.Background(), textContent("Data from 2019 and 2010 and 2024."))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	severityByYear := map[string]domain.Severity{}
	for _, f := range findings {
		severityByYear[f.OriginalText] = f.Severity
	}
	if severityByYear["2019"] != domain.SeverityLow {
		t.Fatalf("7-year-old reference should be low: %v", severityByYear)
	}
	if severityByYear["2010"] != domain.SeverityMedium {
		t.Fatalf("16-year-old reference should be medium: %v", severityByYear)
	}
	if _, flagged := severityByYear["2024"]; flagged {
		t.Fatal("recent year should not be flagged")
	}
}

func TestStalenessFlagsOutdatedURLs(t *testing.T) {
	c := fixedStalenessChecker(2026)
	findings, err := c.Check(context.Background(), textContent("See http://example.com/guide for details."))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 url finding, got %d: %+v", len(findings), findings)
	}
	if findings[0].Description != "Outdated URL: Non-HTTPS URL (security concern)" {
		t.Fatalf("unexpected description: %q", findings[0].Description)
	}
}

func TestStalenessCleanContent(t *testing.T) {
	c := fixedStalenessChecker(2026)
	findings, err := c.Check(context.Background(), textContent("Fresh content about current tools."))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
}
