package services

import (
	"context"

	"civicbridge-be/models"
	"civicbridge-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// engagementStore is the slice of the issue store the tracker needs.
type engagementStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	AddUpvote(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) (*models.Issue, error)
	SetSatisfaction(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID, satisfied bool) (*models.Issue, error)
}

// Engagement tracks upvotes and post-resolution satisfaction. Upvotes are
// permanent signals (add-only); satisfaction is a per-user toggle. The
// asymmetry is intentional.
type Engagement struct {
	store engagementStore
}

func NewEngagement(s engagementStore) *Engagement {
	return &Engagement{store: s}
}

// ToggleUpvote adds userID to the issue's upvote set. A repeat call from
// the same user is a no-op returning the unchanged issue; there is no
// remove-upvote path.
func (e *Engagement) ToggleUpvote(ctx context.Context, issueID, userID primitive.ObjectID) (*models.Issue, error) {
	return e.store.AddUpvote(ctx, issueID, userID)
}

// ToggleSatisfaction flips userID's membership in the satisfaction set.
// It is only valid while the issue is Resolved or Verified. Returns the
// updated issue and whether the user is now in the set.
func (e *Engagement) ToggleSatisfaction(ctx context.Context, issueID, userID primitive.ObjectID) (*models.Issue, bool, error) {
	issue, err := e.store.GetByID(ctx, issueID)
	if err != nil {
		return nil, false, err
	}
	if issue.Status.Open() {
		return nil, false, ErrInvalidState
	}

	satisfied := !issue.IsSatisfiedBy(userID)
	updated, err := e.store.SetSatisfaction(ctx, issueID, userID, satisfied)
	if err == store.ErrInvalidState {
		// Status changed between the read and the guarded write.
		return nil, false, ErrInvalidState
	}
	if err != nil {
		return nil, false, err
	}
	return updated, satisfied, nil
}
