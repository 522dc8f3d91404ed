package services

import (
	"context"
	"sync"
	"time"

	"civicbridge-be/models"
	"civicbridge-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mockIssueStore is an in-memory IssueStore with the same per-issue
// atomicity semantics as the Mongo implementation.
type mockIssueStore struct {
	mu     sync.Mutex
	issues map[primitive.ObjectID]*models.Issue

	locationWriteErr error
	locationWrites   int
}

func newMockIssueStore(issues ...*models.Issue) *mockIssueStore {
	m := &mockIssueStore{issues: map[primitive.ObjectID]*models.Issue{}}
	for _, issue := range issues {
		if issue.ID.IsZero() {
			issue.ID = primitive.NewObjectID()
		}
		m.issues[issue.ID] = issue
	}
	return m
}

func (m *mockIssueStore) get(id primitive.ObjectID) (*models.Issue, error) {
	issue, ok := m.issues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return issue, nil
}

func copyIssue(issue *models.Issue) *models.Issue {
	out := *issue
	out.StatusHistory = append([]models.StatusHistoryEntry(nil), issue.StatusHistory...)
	out.Upvotes = append([]primitive.ObjectID(nil), issue.Upvotes...)
	out.SatisfiedBy = append([]primitive.ObjectID(nil), issue.SatisfiedBy...)
	return &out
}

func (m *mockIssueStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return copyIssue(issue), nil
}

func (m *mockIssueStore) AppendStatus(ctx context.Context, id primitive.ObjectID, entry models.StatusHistoryEntry, resolutionImage *string, resolvedAt *time.Time) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, err := m.get(id)
	if err != nil {
		return nil, err
	}

	issue.Status = entry.Status
	issue.StatusHistory = append(issue.StatusHistory, entry)
	if resolutionImage != nil {
		issue.ResolutionImage = resolutionImage
	}
	if resolvedAt != nil && issue.ResolvedAt == nil {
		issue.ResolvedAt = resolvedAt
	}
	return copyIssue(issue), nil
}

func (m *mockIssueStore) AddUpvote(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, err := m.get(id)
	if err != nil {
		return nil, err
	}

	if !issue.HasUpvoted(userID) {
		issue.Upvotes = append(issue.Upvotes, userID)
	}
	return copyIssue(issue), nil
}

func (m *mockIssueStore) SetSatisfaction(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID, satisfied bool) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, err := m.get(id)
	if err != nil {
		return nil, err
	}
	if issue.Status.Open() {
		return nil, store.ErrInvalidState
	}

	if satisfied {
		if !issue.IsSatisfiedBy(userID) {
			issue.SatisfiedBy = append(issue.SatisfiedBy, userID)
		}
	} else {
		kept := issue.SatisfiedBy[:0]
		for _, uid := range issue.SatisfiedBy {
			if uid != userID {
				kept = append(kept, uid)
			}
		}
		issue.SatisfiedBy = kept
	}
	return copyIssue(issue), nil
}

func (m *mockIssueStore) SetLocationNames(ctx context.Context, id primitive.ObjectID, city, state *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locationWrites++
	if m.locationWriteErr != nil {
		return m.locationWriteErr
	}
	issue, err := m.get(id)
	if err != nil {
		return err
	}
	issue.Location.City = city
	issue.Location.State = state
	return nil
}
