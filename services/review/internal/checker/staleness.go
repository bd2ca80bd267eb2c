package checker

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"edureview/pkg/domain"
)

type deprecatedTech struct {
	replacement string
	reason      string
}

var deprecatedTechs = map[string]deprecatedTech{
	"python 2": {
		replacement: "Python 3",
		reason:      "Python 2 reached end-of-life in January 2020",
	},
	"react.createclass": {
		replacement: "React.Component or functional components with hooks",
		reason:      "React.createClass is deprecated since React 15.5",
	},
	"jquery": {
		replacement: "modern JavaScript (ES6+) or frameworks like React/Vue",
		reason:      "Modern browsers support native features that replace jQuery",
	},
	"angular.js": {
		replacement: "Angular (2+)",
		reason:      "AngularJS reached end-of-life in January 2022",
	},
	"bower": {
		replacement: "npm or yarn",
		reason:      "Bower is deprecated since 2017",
	},
}

type versionRule struct {
	pattern *regexp.Regexp
	tech    string
}

var versionRules = []versionRule{
	{regexp.MustCompile(`(?i)python\s+2\.\d+`), "Python 2"},
	{regexp.MustCompile(`(?i)java\s+[1-7](?:\.\d+)?`), "Java (old version)"},
	{regexp.MustCompile(`(?i)node(?:js)?\s+[0-9]\.x`), "Node.js (old version)"},
	{regexp.MustCompile(`(?i)angular\s+1\.\d+`), "AngularJS"},
}

type urlRule struct {
	pattern     *regexp.Regexp
	description string
}

var urlRules = []urlRule{
	{regexp.MustCompile(`http://docs\.python\.org/2`), "Python 2 documentation"},
	{regexp.MustCompile(`http://[^\s]+`), "Non-HTTPS URL (security concern)"},
	{regexp.MustCompile(`angularjs\.org`), "AngularJS documentation (deprecated)"},
}

var yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// StalenessChecker flags deprecated technologies, old version references,
// aging dates, and outdated URLs. Rule-based.
type StalenessChecker struct {
	now func() time.Time
}

func NewStalenessChecker() *StalenessChecker {
	return &StalenessChecker{now: time.Now}
}

func (c *StalenessChecker) Name() string { return "Staleness Checker" }

func (c *StalenessChecker) Description() string {
	return "Detects outdated technology references and deprecated APIs"
}

func (c *StalenessChecker) Category() domain.ReviewCategory { return domain.ReviewStaleness }

func (c *StalenessChecker) Check(_ context.Context, content domain.Content) ([]domain.Finding, error) {
	var findings []domain.Finding
	findings = append(findings, c.checkDeprecatedTech(content)...)
	findings = append(findings, c.checkOldVersions(content)...)
	findings = append(findings, c.checkOutdatedDates(content)...)
	findings = append(findings, c.checkOutdatedURLs(content)...)
	return findings, nil
}

func (c *StalenessChecker) checkDeprecatedTech(content domain.Content) []domain.Finding {
	var findings []domain.Finding
	textLower := strings.ToLower(content.Text)
	for tech, info := range deprecatedTechs {
		if !strings.Contains(textLower, tech) {
			continue
		}
		findings = append(findings, newFinding(content, c.Name(), domain.FindingStaleness, domain.SeverityHigh,
			fmt.Sprintf("Deprecated technology: %s", tech), finding{
				originalText: tech,
				suggestedFix: info.replacement,
				sources:      []string{"Reason: " + info.reason},
				confidence:   0.90,
			}))
	}
	return findings
}

func (c *StalenessChecker) checkOldVersions(content domain.Content) []domain.Finding {
	var findings []domain.Finding
	for _, rule := range versionRules {
		for _, loc := range rule.pattern.FindAllStringIndex(content.Text, -1) {
			findings = append(findings, newFinding(content, c.Name(), domain.FindingStaleness, domain.SeverityMedium,
				fmt.Sprintf("Old version reference: %s", rule.tech), finding{
					originalText: content.Text[loc[0]:loc[1]],
					suggestedFix: fmt.Sprintf("Update to latest version of %s", rule.tech),
					location:     fmt.Sprintf("Position %d", loc[0]),
					confidence:   0.85,
				}))
		}
	}
	return findings
}

// checkOutdatedDates flags year references more than five years old. Age
// decides severity: under ten years low, ten or more medium.
func (c *StalenessChecker) checkOutdatedDates(content domain.Content) []domain.Finding {
	var findings []domain.Finding
	currentYear := c.now().Year()
	for _, loc := range yearPattern.FindAllStringIndex(content.Text, -1) {
		raw := content.Text[loc[0]:loc[1]]
		year, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		yearsOld := currentYear - year
		if yearsOld <= 5 {
			continue
		}
		severity := domain.SeverityLow
		if yearsOld >= 10 {
			severity = domain.SeverityMedium
		}
		findings = append(findings, newFinding(content, c.Name(), domain.FindingStaleness, severity,
			fmt.Sprintf("Reference to %d is %d years old", year, yearsOld), finding{
				originalText: raw,
				suggestedFix: fmt.Sprintf("Consider updating statistics or examples from %d", year),
				location:     fmt.Sprintf("Position %d", loc[0]),
				confidence:   0.70,
			}))
	}
	return findings
}

func (c *StalenessChecker) checkOutdatedURLs(content domain.Content) []domain.Finding {
	var findings []domain.Finding
	for _, rule := range urlRules {
		for _, loc := range rule.pattern.FindAllStringIndex(content.Text, -1) {
			findings = append(findings, newFinding(content, c.Name(), domain.FindingStaleness, domain.SeverityMedium,
				fmt.Sprintf("Outdated URL: %s", rule.description), finding{
					originalText: content.Text[loc[0]:loc[1]],
					suggestedFix: "Update to current documentation URL",
					confidence:   0.85,
				}))
		}
	}
	return findings
}
