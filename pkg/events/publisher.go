package events

import (
	"context"
	"time"

	"edureview/pkg/domain"
)

// ReviewCompleted is emitted once per finished review dispatch, whether it
// completed or failed.
type ReviewCompleted struct {
	ReviewID     string                `json:"reviewId"`
	ContentID    string                `json:"contentId"`
	Category     domain.ReviewCategory `json:"category"`
	Status       domain.ReviewStatus   `json:"status"`
	QualityScore float64               `json:"qualityScore"`
	FindingCount int                   `json:"findingCount"`
	OccurredAt   time.Time             `json:"occurredAt"`
}

// Publisher emits review lifecycle events. Publishing is best-effort and
// must never fail the review itself.
type Publisher interface {
	PublishReviewCompleted(ctx context.Context, event ReviewCompleted) error
	Close() error
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishReviewCompleted(context.Context, ReviewCompleted) error { return nil }
func (NopPublisher) Close() error                                                  { return nil }
