package services

import (
	"context"
	"log"
	"time"

	"civicbridge-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// locationWriter is the slice of the issue store the backfiller needs.
type locationWriter interface {
	SetLocationNames(ctx context.Context, id primitive.ObjectID, city, state *string) error
}

// Backfiller fills in missing city/state names for issues that carry
// coordinates. It runs inline with the listing request so the enrichment is
// visible in the same response: the cap bounds the added latency, the pause
// keeps us under Nominatim's ~1 req/sec ceiling.
type Backfiller struct {
	store       locationWriter
	geocoder    Geocoder
	maxPerSweep int
	pause       time.Duration
	sleep       func(time.Duration)
}

func NewBackfiller(store locationWriter, geocoder Geocoder, maxPerSweep int, pause time.Duration) *Backfiller {
	return &Backfiller{
		store:       store,
		geocoder:    geocoder,
		maxPerSweep: maxPerSweep,
		pause:       pause,
		sleep:       time.Sleep,
	}
}

// Sweep enriches at most maxPerSweep issues from the given result set,
// pausing between consecutive provider calls (never after the last one).
// Successful lookups are persisted immediately and patched into the slice
// in place so the caller's response reflects them. Failed lookups leave the
// issue untouched and eligible for the next sweep; failed write-backs are
// logged and the patched result is still returned.
func (b *Backfiller) Sweep(ctx context.Context, issues []models.Issue) {
	candidates := make([]int, 0, b.maxPerSweep)
	for i := range issues {
		if issues[i].Location.NeedsEnrichment() {
			candidates = append(candidates, i)
			if len(candidates) == b.maxPerSweep {
				break
			}
		}
	}

	for n, i := range candidates {
		if n > 0 {
			b.sleep(b.pause)
		}

		issue := &issues[i]
		geo := b.geocoder.ReverseGeocode(ctx, *issue.Location.Lat, *issue.Location.Lng)
		if geo.Empty() {
			continue
		}

		if err := b.store.SetLocationNames(ctx, issue.ID, geo.City, geo.State); err != nil {
			log.Printf("Backfill write-back failed for issue %s: %v", issue.ID.Hex(), err)
		}
		issue.Location.City = geo.City
		issue.Location.State = geo.State
	}
}
