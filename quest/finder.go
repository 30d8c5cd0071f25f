package quest

import (
	"context"
	"fmt"

	"plantquest/geo"
	"plantquest/models"
)

// NearbyFinder lists pending quests on plants near a user's stored location.
type NearbyFinder struct {
	store        Store
	radiusMeters float64
}

// NewNearbyFinder returns a finder with the standard discovery radius.
func NewNearbyFinder(store Store) *NearbyFinder {
	return &NearbyFinder{store: store, radiusMeters: NearbyRadiusMeters}
}

// Find returns the pending quests of every plant within the discovery radius
// of the user's stored location, boundary inclusive, each annotated with its
// quest ID. It returns ErrUserLocationUnset when the user has no location.
//
// This scans every plant and checks the exact distance per plant. Fine at
// current scale; a spatial index (geohash prefix) would replace the scan
// without changing the result set.
func (f *NearbyFinder) Find(ctx context.Context, userID string) ([]models.Quest, error) {
	user, err := f.store.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Location == nil {
		return nil, ErrUserLocationUnset
	}

	plants, err := f.store.Plants(ctx)
	if err != nil {
		return nil, fmt.Errorf("load plants: %w", err)
	}

	quests := []models.Quest{}
	for _, plant := range plants {
		if !geo.IsWithin(*user.Location, plant.Location, f.radiusMeters) {
			continue
		}
		pending, err := f.store.PendingQuestsForPlant(ctx, plant.ID)
		if err != nil {
			return nil, fmt.Errorf("pending quests for plant %s: %w", plant.ID, err)
		}
		quests = append(quests, pending...)
	}
	return quests, nil
}
