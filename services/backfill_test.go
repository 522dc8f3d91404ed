package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"civicbridge-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeGeocoder returns canned results and records every lookup.
type fakeGeocoder struct {
	results map[[2]float64]GeoResult
	calls   int
}

func (f *fakeGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) GeoResult {
	f.calls++
	return f.results[[2]float64{lat, lng}]
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func issueAt(lat, lng float64) *models.Issue {
	issue := submittedIssue(primitive.NewObjectID())
	issue.Location = models.Location{Lat: floatPtr(lat), Lng: floatPtr(lng)}
	return issue
}

func newTestBackfiller(store *mockIssueStore, geo Geocoder) (*Backfiller, *[]time.Duration) {
	backfiller := NewBackfiller(store, geo, 5, 1100*time.Millisecond)
	sleeps := &[]time.Duration{}
	backfiller.sleep = func(d time.Duration) { *sleeps = append(*sleeps, d) }
	return backfiller, sleeps
}

func TestSweepEnrichesAndPersists(t *testing.T) {
	issue := issueAt(40.0, -74.0)
	mock := newMockIssueStore(issue)
	geo := &fakeGeocoder{results: map[[2]float64]GeoResult{
		{40.0, -74.0}: {City: strPtr("Trenton"), State: strPtr("New Jersey")},
	}}
	backfiller, _ := newTestBackfiller(mock, geo)

	issues := []models.Issue{*issue}
	backfiller.Sweep(context.Background(), issues)

	// Patched into the in-memory result set
	require.NotNil(t, issues[0].Location.City)
	assert.Equal(t, "Trenton", *issues[0].Location.City)
	require.NotNil(t, issues[0].Location.State)
	assert.Equal(t, "New Jersey", *issues[0].Location.State)

	// And persisted
	stored, err := mock.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Location.City)
	assert.Equal(t, "Trenton", *stored.Location.City)
}

func TestSweepHonorsHardCap(t *testing.T) {
	geo := &fakeGeocoder{results: map[[2]float64]GeoResult{}}
	mock := newMockIssueStore()
	issues := make([]models.Issue, 0, 6)
	for i := 0; i < 6; i++ {
		candidate := issueAt(float64(i), float64(i))
		geo.results[[2]float64{float64(i), float64(i)}] = GeoResult{City: strPtr("City"), State: strPtr("State")}
		mock.issues[candidate.ID] = candidate
		issues = append(issues, *candidate)
	}

	backfiller, _ := newTestBackfiller(mock, geo)
	backfiller.Sweep(context.Background(), issues)

	assert.Equal(t, 5, geo.calls, "at most 5 candidates per invocation")

	enriched := 0
	for _, issue := range issues {
		if issue.Location.City != nil {
			enriched++
		}
	}
	assert.Equal(t, 5, enriched)
	assert.Nil(t, issues[5].Location.City, "sixth candidate left for the next sweep")
}

func TestSweepPacesBetweenCallsOnly(t *testing.T) {
	geo := &fakeGeocoder{results: map[[2]float64]GeoResult{}}
	mock := newMockIssueStore()
	issues := []models.Issue{}
	for i := 0; i < 3; i++ {
		candidate := issueAt(float64(i), float64(i))
		mock.issues[candidate.ID] = candidate
		issues = append(issues, *candidate)
	}

	backfiller, sleeps := newTestBackfiller(mock, geo)
	backfiller.Sweep(context.Background(), issues)

	require.Len(t, *sleeps, 2, "pause between consecutive calls, none after the last")
	for _, d := range *sleeps {
		assert.Equal(t, 1100*time.Millisecond, d)
	}
}

func TestSweepSingleCandidateDoesNotPause(t *testing.T) {
	issue := issueAt(1, 1)
	mock := newMockIssueStore(issue)
	backfiller, sleeps := newTestBackfiller(mock, &fakeGeocoder{})

	backfiller.Sweep(context.Background(), []models.Issue{*issue})
	assert.Empty(t, *sleeps)
}

func TestSweepSkipsNonCandidates(t *testing.T) {
	noCoords := submittedIssue(primitive.NewObjectID())

	alreadyNamed := issueAt(2, 2)
	alreadyNamed.Location.City = strPtr("Springfield")
	alreadyNamed.Location.State = strPtr("Illinois")

	geo := &fakeGeocoder{}
	mock := newMockIssueStore(noCoords, alreadyNamed)
	backfiller, _ := newTestBackfiller(mock, geo)

	backfiller.Sweep(context.Background(), []models.Issue{*noCoords, *alreadyNamed})
	assert.Zero(t, geo.calls)
}

func TestSweepLeavesFailedLookupUntouched(t *testing.T) {
	issue := issueAt(3, 3)
	mock := newMockIssueStore(issue)
	geo := &fakeGeocoder{} // empty result for everything
	backfiller, _ := newTestBackfiller(mock, geo)

	issues := []models.Issue{*issue}
	backfiller.Sweep(context.Background(), issues)

	assert.Nil(t, issues[0].Location.City)
	assert.Nil(t, issues[0].Location.State)
	assert.Zero(t, mock.locationWrites, "empty results are not persisted")

	// Still a candidate for the next invocation
	assert.True(t, issues[0].Location.NeedsEnrichment())
}

func TestSweepPatchesResultWhenWriteBackFails(t *testing.T) {
	issue := issueAt(4, 4)
	mock := newMockIssueStore(issue)
	mock.locationWriteErr = errors.New("write timeout")
	geo := &fakeGeocoder{results: map[[2]float64]GeoResult{
		{4, 4}: {City: strPtr("Dover"), State: strPtr("Delaware")},
	}}
	backfiller, _ := newTestBackfiller(mock, geo)

	issues := []models.Issue{*issue}
	backfiller.Sweep(context.Background(), issues)

	// The response still carries the best data we have
	require.NotNil(t, issues[0].Location.City)
	assert.Equal(t, "Dover", *issues[0].Location.City)

	// But the store was left untouched, so the next sweep retries
	stored, err := mock.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Location.City)
}
