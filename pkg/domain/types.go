package domain

import "time"

type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleRecruiter UserRole = "recruiter"
	RoleAdmin     UserRole = "admin"
)

// ParseUserRole maps a raw string onto the closed role set.
func ParseUserRole(raw string) (UserRole, bool) {
	switch UserRole(raw) {
	case RoleUser, RoleRecruiter, RoleAdmin:
		return UserRole(raw), true
	default:
		return "", false
	}
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Principal is the authenticated identity attached to one request.
// It lives only for the duration of that request.
type Principal struct {
	UserID string
	Role   UserRole
}

type ContentCategory string

const (
	ContentText     ContentCategory = "text"
	ContentCode     ContentCategory = "code"
	ContentMarkdown ContentCategory = "markdown"
	ContentHTML     ContentCategory = "html"
	ContentSlide    ContentCategory = "slide"
	ContentPDF      ContentCategory = "pdf"
)

// Content is one piece of reviewable material. Immutable during review.
type Content struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Text       string          `json:"text"`
	Category   ContentCategory `json:"category"`
	Discipline string          `json:"discipline,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type FindingType string

const (
	FindingLexical     FindingType = "lexical"
	FindingGrammar     FindingType = "grammar"
	FindingSyntax      FindingType = "syntax"
	FindingReadability FindingType = "readability"
	FindingCitation    FindingType = "citation"
	FindingStaleness   FindingType = "staleness"
	FindingTechnical   FindingType = "technical"
	FindingFactual     FindingType = "factual"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Finding is one reported issue in reviewed content. Findings are
// append-only within a review pass.
type Finding struct {
	ID           string      `json:"id"`
	ContentID    string      `json:"contentId"`
	Type         FindingType `json:"type"`
	Severity     Severity    `json:"severity"`
	Description  string      `json:"description"`
	Location     string      `json:"location,omitempty"`
	OriginalText string      `json:"originalText,omitempty"`
	SuggestedFix string      `json:"suggestedFix,omitempty"`
	Sources      []string    `json:"sources,omitempty"`
	Confidence   float64     `json:"confidence"`
	Checker      string      `json:"checker,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

type ReviewCategory string

const (
	ReviewLexical     ReviewCategory = "lexical"
	ReviewReadability ReviewCategory = "readability"
	ReviewCitation    ReviewCategory = "citation"
	ReviewStaleness   ReviewCategory = "staleness"
	ReviewFull        ReviewCategory = "full"
)

// ParseReviewCategory maps a raw string onto the known review categories.
func ParseReviewCategory(raw string) (ReviewCategory, bool) {
	switch ReviewCategory(raw) {
	case ReviewLexical, ReviewReadability, ReviewCitation, ReviewStaleness, ReviewFull:
		return ReviewCategory(raw), true
	default:
		return "", false
	}
}

type ReviewStatus string

const (
	ReviewPending    ReviewStatus = "pending"
	ReviewInProgress ReviewStatus = "in_progress"
	ReviewCompleted  ReviewStatus = "completed"
	ReviewFailed     ReviewStatus = "failed"
)

// ReviewOutcome is the result of one (content, category) dispatch.
// Terminal once completed or failed; never reopened.
type ReviewOutcome struct {
	ID              string         `json:"id"`
	ContentID       string         `json:"contentId"`
	Category        ReviewCategory `json:"category"`
	Status          ReviewStatus   `json:"status"`
	Findings        []Finding      `json:"findings"`
	Summary         string         `json:"summary"`
	Recommendations []string       `json:"recommendations"`
	QualityScore    float64        `json:"qualityScore"`
	CreatedAt       time.Time      `json:"createdAt"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
}

// CheckerInfo describes one registered checker for the /agents listing.
type CheckerInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    ReviewCategory `json:"category"`
}
