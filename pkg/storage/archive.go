package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"edureview/pkg/domain"
)

// ErrNoSnapshot is returned when no archived snapshot can be served,
// either because archiving is not configured or nothing was stored.
var ErrNoSnapshot = errors.New("no archived snapshot")

// snapshotLinkTTL bounds how long a minted download link stays valid.
const snapshotLinkTTL = 15 * time.Minute

// ReviewArchiver persists a snapshot of a finished review and serves
// download links for stored snapshots. Archiving is best-effort: a failure
// never fails the review itself.
type ReviewArchiver interface {
	ArchiveReview(ctx context.Context, content domain.Content, outcome domain.ReviewOutcome) error
	SnapshotURL(ctx context.Context, reviewID string) (string, error)
}

// ReviewSnapshot is the archived document: the content exactly as reviewed
// plus the outcome produced for it.
type ReviewSnapshot struct {
	Content    domain.Content       `json:"content"`
	Outcome    domain.ReviewOutcome `json:"outcome"`
	ArchivedAt time.Time            `json:"archivedAt"`
}

// ObjectArchive writes review snapshots into a SnapshotStore as JSON.
type ObjectArchive struct {
	store SnapshotStore
}

// NewObjectArchive builds a ReviewArchiver on top of a SnapshotStore.
func NewObjectArchive(store SnapshotStore) *ObjectArchive {
	return &ObjectArchive{store: store}
}

func snapshotKey(reviewID string) string {
	return fmt.Sprintf("reviews/%s.json", reviewID)
}

// ArchiveReview uploads the snapshot under reviews/<review-id>.json.
func (a *ObjectArchive) ArchiveReview(ctx context.Context, content domain.Content, outcome domain.ReviewOutcome) error {
	snapshot := ReviewSnapshot{
		Content:    content,
		Outcome:    outcome,
		ArchivedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return a.store.Put(ctx, snapshotKey(outcome.ID), bytes.NewReader(body), int64(len(body)), "application/json")
}

// SnapshotURL mints a short-lived download link for an archived snapshot.
func (a *ObjectArchive) SnapshotURL(ctx context.Context, reviewID string) (string, error) {
	return a.store.PresignGet(ctx, snapshotKey(reviewID), snapshotLinkTTL)
}

// NopArchiver drops snapshots. Used when no object storage is configured.
type NopArchiver struct{}

func (NopArchiver) ArchiveReview(context.Context, domain.Content, domain.ReviewOutcome) error {
	return nil
}

func (NopArchiver) SnapshotURL(context.Context, string) (string, error) {
	return "", ErrNoSnapshot
}
