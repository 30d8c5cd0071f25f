// Package guard rejects re-registration of an already-tracked plant. A new
// registration is a duplicate when a plant of the same species already exists
// within a few meters and its stored photo fingerprint sits within a small
// Hamming distance of the new photo's fingerprint.
package guard

import (
	"context"
	"fmt"
	"strings"

	"plantquest/geo"
	"plantquest/models"
	"plantquest/phash"
)

const (
	// DefaultProximityDegrees is the degree delta of the candidate bounding
	// box; roughly 3-4 m, i.e. near-exact co-location.
	DefaultProximityDegrees = 0.00003
	// DefaultHammingThreshold is the maximum fingerprint distance, in bits,
	// at which two photos count as the same plant.
	DefaultHammingThreshold = 5
)

// Source yields candidate plants from an indexed latitude range. The guard
// applies the longitude bound and the exact checks in process.
type Source interface {
	PlantsInLatRange(ctx context.Context, minLat, maxLat float64) ([]models.Plant, error)
}

// DuplicateError reports a rejected registration and the plant it matched.
type DuplicateError struct {
	PlantID string
	Species string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate plant detected nearby (species: %s, plant: %s)", e.Species, e.PlantID)
}

// Guard vetoes duplicate plant registrations.
type Guard struct {
	source       Source
	radiusDeg    float64
	radiusMeters float64
	threshold    int
}

// New returns a Guard over source. Non-positive radiusDeg or threshold fall
// back to the defaults.
func New(source Source, radiusDeg float64, threshold int) *Guard {
	if radiusDeg <= 0 {
		radiusDeg = DefaultProximityDegrees
	}
	if threshold <= 0 {
		threshold = DefaultHammingThreshold
	}
	return &Guard{
		source:       source,
		radiusDeg:    radiusDeg,
		radiusMeters: radiusDeg * geo.MetersPerDegreeLat,
		threshold:    threshold,
	}
}

// Check fingerprints photo and tests it against nearby plants of the same
// species. It returns the fingerprint for storage on acceptance, a
// *DuplicateError when a match is found, and any other error when the photo
// cannot be fingerprinted or candidates cannot be loaded. A fingerprinting
// failure fails the registration; unreadable image data never bypasses the
// guard.
func (g *Guard) Check(ctx context.Context, photo []byte, species string, loc models.Location) (uint64, error) {
	fp, err := phash.Fingerprint(photo)
	if err != nil {
		return 0, fmt.Errorf("fingerprint registration photo: %w", err)
	}

	bounds := geo.BoundingBox(loc, g.radiusDeg)
	candidates, err := g.source.PlantsInLatRange(ctx, bounds.MinLat, bounds.MaxLat)
	if err != nil {
		return 0, fmt.Errorf("load nearby plants: %w", err)
	}

	for _, cand := range candidates {
		if !bounds.Contains(cand.Location) {
			continue
		}
		// The box is over-inclusive at its corners; only plants within the
		// exact great-circle radius count as co-located.
		if !geo.IsWithin(loc, cand.Location, g.radiusMeters) {
			continue
		}
		if !strings.EqualFold(cand.Species, species) {
			continue
		}
		if cand.ImagePHash == nil {
			// Legacy document without a stored fingerprint.
			continue
		}
		if phash.Distance(fp, uint64(*cand.ImagePHash)) <= g.threshold {
			return 0, &DuplicateError{PlantID: cand.ID, Species: cand.Species}
		}
	}
	return fp, nil
}
