package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueSeverity enum
type IssueSeverity string

const (
	Low    IssueSeverity = "Low"
	Medium IssueSeverity = "Medium"
	High   IssueSeverity = "High"
)

// Valid reports whether s is one of the three legal severities.
func (s IssueSeverity) Valid() bool {
	switch s {
	case Low, Medium, High:
		return true
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	Submitted    IssueStatus = "Submitted"
	Acknowledged IssueStatus = "Acknowledged"
	Assigned     IssueStatus = "Assigned"
	InProgress   IssueStatus = "In Progress"
	Resolved     IssueStatus = "Resolved"
	Verified     IssueStatus = "Verified"
)

// Valid reports whether s is one of the six legal statuses. Transitions are
// deliberately permissive: any legal status is accepted as a target from any
// current status, so workflows can revert (e.g. Resolved -> In Progress
// after a reopened complaint).
func (s IssueStatus) Valid() bool {
	switch s {
	case Submitted, Acknowledged, Assigned, InProgress, Resolved, Verified:
		return true
	}
	return false
}

// Open reports whether the issue still awaits resolution.
func (s IssueStatus) Open() bool {
	return s != Resolved && s != Verified
}

// Location holds raw coordinates plus the human-readable names derived from
// reverse geocoding. Lat/Lng are both set or both nil; City/State stay nil
// until a single enrichment call fills both.
type Location struct {
	Lat   *float64 `bson:"lat" json:"lat"`
	Lng   *float64 `bson:"lng" json:"lng"`
	City  *string  `bson:"city" json:"city"`
	State *string  `bson:"state" json:"state"`
}

// HasCoordinates reports whether both lat and lng are present.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lng != nil
}

// NeedsEnrichment reports whether the location has coordinates but no
// derived city/state yet.
func (l Location) NeedsEnrichment() bool {
	return l.HasCoordinates() && l.City == nil && l.State == nil
}

// StatusHistoryEntry is one record of the append-only audit log. The last
// entry always matches the issue's current status.
type StatusHistoryEntry struct {
	Status    IssueStatus        `bson:"status" json:"status"`
	UpdatedBy primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
	Note      string             `bson:"note" json:"note"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Issue represents a civic issue reported by a resident and tracked through
// the resolution workflow.
type Issue struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title           string               `bson:"title" json:"title"`
	Description     string               `bson:"description" json:"description"`
	Category        string               `bson:"category" json:"category"`
	Severity        IssueSeverity        `bson:"severity" json:"severity"`
	Image           *string              `bson:"image" json:"image"`
	Location        Location             `bson:"location" json:"location"`
	Status          IssueStatus          `bson:"status" json:"status"`
	StatusHistory   []StatusHistoryEntry `bson:"statusHistory" json:"statusHistory"`
	Upvotes         []primitive.ObjectID `bson:"upvotes" json:"upvotes"`
	SatisfiedBy     []primitive.ObjectID `bson:"satisfiedBy" json:"satisfiedBy"`
	ResolvedAt      *time.Time           `bson:"resolvedAt" json:"resolvedAt"`
	ResolutionImage *string              `bson:"resolutionImage" json:"resolutionImage"`
	CreatedBy       primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
}

// HasUpvoted reports whether userID is in the upvote set.
func (i *Issue) HasUpvoted(userID primitive.ObjectID) bool {
	for _, id := range i.Upvotes {
		if id == userID {
			return true
		}
	}
	return false
}

// IsSatisfiedBy reports whether userID is in the satisfaction set.
func (i *Issue) IsSatisfiedBy(userID primitive.ObjectID) bool {
	for _, id := range i.SatisfiedBy {
		if id == userID {
			return true
		}
	}
	return false
}
