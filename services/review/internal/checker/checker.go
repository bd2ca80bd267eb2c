package checker

import (
	"context"

	"edureview/pkg/domain"
)

// Checker inspects one piece of content and emits zero or more findings.
// An empty result is the no-issues state, never an error.
type Checker interface {
	Name() string
	Description() string
	Category() domain.ReviewCategory
	Check(ctx context.Context, content domain.Content) ([]domain.Finding, error)
}
