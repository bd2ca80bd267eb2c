package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"edureview/internal/util"
	"edureview/pkg/domain"
	"edureview/pkg/events"
	"edureview/pkg/storage"
	"edureview/pkg/store"
	"edureview/services/review/internal/checker"
)

// ErrUnknownCategory is returned when a dispatch names a category no
// checker serves.
var ErrUnknownCategory = errors.New("unknown review category")

// ErrOutcomeNotFound is returned when a review outcome id does not exist.
var ErrOutcomeNotFound = errors.New("review not found")

// Config holds runtime configuration for the review application.
type Config struct {
	DatabaseURL string

	// Checkers run in the order given when a full review is dispatched.
	Checkers []checker.Checker

	// Injectable for tests; defaulted when nil.
	Store     store.Store
	Publisher events.Publisher
	Archiver  storage.ReviewArchiver
}

// App dispatches content through checkers and aggregates outcomes.
type App struct {
	store      store.Store
	checkers   []checker.Checker
	byCategory map[domain.ReviewCategory]checker.Checker
	publisher  events.Publisher
	archiver   storage.ReviewArchiver
}

// New constructs the review application.
func New(cfg Config) (*App, error) {
	if len(cfg.Checkers) == 0 {
		return nil, fmt.Errorf("at least one checker required")
	}
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	archiver := cfg.Archiver
	if archiver == nil {
		archiver = storage.NopArchiver{}
	}
	byCategory := make(map[domain.ReviewCategory]checker.Checker, len(cfg.Checkers))
	for _, c := range cfg.Checkers {
		if _, dup := byCategory[c.Category()]; dup {
			return nil, fmt.Errorf("duplicate checker for category %s", c.Category())
		}
		byCategory[c.Category()] = c
	}
	return &App{
		store:      dataStore,
		checkers:   cfg.Checkers,
		byCategory: byCategory,
		publisher:  publisher,
		archiver:   archiver,
	}, nil
}

// Dispatch runs the checkers selected by category over the content and
// persists the aggregated outcome. A full review runs every checker;
// findings keep checker registration order regardless of completion order.
// A single checker failure fails the whole dispatch and discards findings
// collected by the others.
func (a *App) Dispatch(ctx context.Context, content domain.Content, category domain.ReviewCategory) (domain.ReviewOutcome, error) {
	selected, err := a.selectCheckers(category)
	if err != nil {
		return domain.ReviewOutcome{}, err
	}

	outcome := domain.ReviewOutcome{
		ID:        util.NewID(),
		ContentID: content.ID,
		Category:  category,
		Status:    domain.ReviewInProgress,
		CreatedAt: time.Now().UTC(),
	}

	results := make([][]domain.Finding, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range selected {
		g.Go(func() error {
			findings, err := c.Check(gctx, content)
			if err != nil {
				return err
			}
			results[i] = findings
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		outcome.Status = domain.ReviewFailed
		outcome.Summary = fmt.Sprintf("Review failed: %s", err)
		outcome.Findings = nil
	} else {
		var findings []domain.Finding
		for _, part := range results {
			findings = append(findings, part...)
		}
		now := time.Now().UTC()
		outcome.Status = domain.ReviewCompleted
		outcome.Findings = findings
		outcome.Summary = summarize(findings)
		outcome.Recommendations = recommend(findings)
		outcome.QualityScore = qualityScore(findings)
		outcome.CompletedAt = &now
	}

	if err := a.store.SaveReviewOutcome(outcome); err != nil {
		return domain.ReviewOutcome{}, fmt.Errorf("save outcome: %w", err)
	}
	a.announce(ctx, content, outcome)
	return outcome, nil
}

// announce publishes and archives the finished review. Both are
// best-effort and only logged on failure.
func (a *App) announce(ctx context.Context, content domain.Content, outcome domain.ReviewOutcome) {
	logger := util.LoggerFromContext(ctx)
	event := events.ReviewCompleted{
		ReviewID:     outcome.ID,
		ContentID:    outcome.ContentID,
		Category:     outcome.Category,
		Status:       outcome.Status,
		QualityScore: outcome.QualityScore,
		FindingCount: len(outcome.Findings),
		OccurredAt:   time.Now().UTC(),
	}
	if err := a.publisher.PublishReviewCompleted(ctx, event); err != nil {
		logger.Warn("publish review event failed", "review_id", outcome.ID, "err", err)
	}
	if err := a.archiver.ArchiveReview(ctx, content, outcome); err != nil {
		logger.Warn("archive review failed", "review_id", outcome.ID, "err", err)
	}
}

func (a *App) selectCheckers(category domain.ReviewCategory) ([]checker.Checker, error) {
	if category == domain.ReviewFull {
		return a.checkers, nil
	}
	c, ok := a.byCategory[category]
	if !ok {
		return nil, ErrUnknownCategory
	}
	return []checker.Checker{c}, nil
}

// GetOutcome fetches a stored review outcome.
func (a *App) GetOutcome(id string) (domain.ReviewOutcome, error) {
	outcome, found, err := a.store.GetReviewOutcome(id)
	if err != nil {
		return domain.ReviewOutcome{}, fmt.Errorf("fetch outcome: %w", err)
	}
	if !found {
		return domain.ReviewOutcome{}, ErrOutcomeNotFound
	}
	return outcome, nil
}

// SnapshotURL returns a short-lived download link for the archived snapshot
// of a stored review. Fails with storage.ErrNoSnapshot when archiving is
// not configured.
func (a *App) SnapshotURL(ctx context.Context, id string) (string, error) {
	if _, err := a.GetOutcome(id); err != nil {
		return "", err
	}
	return a.archiver.SnapshotURL(ctx, id)
}

// Checkers describes the registered checkers for discovery endpoints.
func (a *App) Checkers() []domain.CheckerInfo {
	infos := make([]domain.CheckerInfo, 0, len(a.checkers))
	for _, c := range a.checkers {
		infos = append(infos, domain.CheckerInfo{
			Name:        c.Name(),
			Description: c.Description(),
			Category:    c.Category(),
		})
	}
	return infos
}

func summarize(findings []domain.Finding) string {
	if len(findings) == 0 {
		return "No issues found. Content looks good!"
	}
	counts := map[domain.Severity]int{}
	for _, f := range findings {
		counts[f.Severity]++
	}
	var parts []string
	for _, sev := range []domain.Severity{domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow} {
		if counts[sev] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[sev], sev))
		}
	}
	summary := fmt.Sprintf("Found %d issue(s)", len(findings))
	if len(parts) > 0 {
		summary += ": " + strings.Join(parts, ", ")
	}
	return summary
}

func recommend(findings []domain.Finding) []string {
	counts := map[domain.FindingType]int{}
	for _, f := range findings {
		counts[f.Type]++
	}
	var recs []string
	if counts[domain.FindingLexical] > 3 {
		recs = append(recs, "Consider running a spell checker before publishing")
	}
	if counts[domain.FindingReadability] > 5 {
		recs = append(recs, "Content may be too complex. Consider simplifying language and breaking up long sentences")
	}
	if counts[domain.FindingCitation] > 2 {
		recs = append(recs, "Add citations and references from trusted sources")
	}
	if counts[domain.FindingStaleness] > 0 {
		recs = append(recs, "Update references to current versions and technologies")
	}
	if len(recs) == 0 {
		recs = append(recs, "Content quality is good overall")
	}
	return recs
}

var severityPenalty = map[domain.Severity]float64{
	domain.SeverityCritical: 10,
	domain.SeverityHigh:     5,
	domain.SeverityMedium:   2,
	domain.SeverityLow:      1,
	domain.SeverityInfo:     0,
}

func qualityScore(findings []domain.Finding) float64 {
	score := 100.0
	for _, f := range findings {
		score -= severityPenalty[f.Severity]
	}
	if score < 0 {
		return 0
	}
	return score
}
