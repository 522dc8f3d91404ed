package services

import (
	"context"
	"strings"
	"time"

	"civicbridge-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// lifecycleStore is the slice of the issue store the lifecycle needs.
type lifecycleStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	AppendStatus(ctx context.Context, id primitive.ObjectID, entry models.StatusHistoryEntry, resolutionImage *string, resolvedAt *time.Time) (*models.Issue, error)
}

// Lifecycle enforces the status transition rules and maintains the
// append-only audit history.
type Lifecycle struct {
	store lifecycleStore
	now   func() time.Time
}

func NewLifecycle(s lifecycleStore) *Lifecycle {
	return &Lifecycle{store: s, now: time.Now}
}

// UpdateStatus moves the issue to target and appends the matching history
// entry in a single atomic write. Any of the six legal statuses is accepted
// from any current status; only enum membership is validated. resolvedAt is
// set the first time the issue reaches Resolved and never changes again.
//
// Authorization (official role) is the caller's responsibility; this layer
// receives a pre-validated actor.
func (l *Lifecycle) UpdateStatus(ctx context.Context, issueID, actorID primitive.ObjectID, target models.IssueStatus, note string, resolutionImage *string) (*models.Issue, error) {
	if !target.Valid() {
		return nil, ErrInvalidStatus
	}

	issue, err := l.store.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	now := l.now()
	entry := models.StatusHistoryEntry{
		Status:    target,
		UpdatedBy: actorID,
		Note:      strings.TrimSpace(note),
		Timestamp: now,
	}

	var resolvedAt *time.Time
	if target == models.Resolved && issue.ResolvedAt == nil {
		resolvedAt = &now
	}

	return l.store.AppendStatus(ctx, issueID, entry, resolutionImage, resolvedAt)
}
