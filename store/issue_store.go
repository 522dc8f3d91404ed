package store

import (
	"context"
	"errors"
	"time"

	"civicbridge-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when no issue matches the given id.
var ErrNotFound = errors.New("issue not found")

// ErrInvalidState is returned when a conditional write's state guard did
// not match (e.g. satisfaction toggled outside Resolved/Verified).
var ErrInvalidState = errors.New("issue is not in a valid state for this operation")

// Sort selects the ordering of a filtered listing.
type Sort string

const (
	Newest      Sort = "newest"
	Oldest      Sort = "oldest"
	MostUpvoted Sort = "upvotes"
)

// Filter is a conjunctive equality filter; empty fields match everything.
type Filter struct {
	Category string
	Severity string
	Status   string
}

// IssueStore is the persistence contract for issues. All mutations are
// atomic per issue: a reader never observes a status without its trailing
// history entry, and concurrent set toggles never lose updates.
type IssueStore interface {
	// Find returns issues matching the filter in the requested order.
	Find(ctx context.Context, filter Filter, sort Sort) ([]models.Issue, error)

	// GetByID returns the issue or ErrNotFound.
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)

	// Create inserts a new issue and fills in its generated id.
	Create(ctx context.Context, issue *models.Issue) error

	// AppendStatus sets the status and appends the history entry in one
	// atomic write. resolutionImage replaces the stored one when non-nil.
	// resolvedAt, when non-nil, is written only if the stored value is
	// still unset; a concurrent first-resolution wins and is kept.
	AppendStatus(ctx context.Context, id primitive.ObjectID, entry models.StatusHistoryEntry, resolutionImage *string, resolvedAt *time.Time) (*models.Issue, error)

	// AddUpvote adds userID to the upvote set (no-op if present) and
	// returns the updated issue.
	AddUpvote(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) (*models.Issue, error)

	// SetSatisfaction adds or removes userID from the satisfaction set.
	// The write only applies while status is Resolved or Verified;
	// otherwise ErrInvalidState is returned.
	SetSatisfaction(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID, satisfied bool) (*models.Issue, error)

	// SetLocationNames persists the derived city/state for an issue.
	SetLocationNames(ctx context.Context, id primitive.ObjectID, city, state *string) error
}
