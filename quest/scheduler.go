package quest

import (
	"context"
	"fmt"
	"log"
	"time"

	"plantquest/models"
)

// Scheduler creates due quests across all plants. It is triggered
// externally (HTTP or a periodic job) and never schedules itself.
type Scheduler struct {
	store Store
}

func NewScheduler(store Store) *Scheduler {
	return &Scheduler{store: store}
}

// RunOnce walks every plant and every quest type and creates a quest wherever
// none exists within the type's recurrence window. It returns the IDs of the
// quests it created.
//
// A repeated run with no wall-clock advance creates nothing: the freshly
// created quest is itself the latest quest of its (plant, type) pair. Two
// overlapping runs can still both observe "due" before either writes; the
// duplicate quest that produces is tolerated and left to a future
// conditional write to close.
//
// Store read or quest-create failures abort the run and return the quests
// created so far. Failures updating the denormalized plant or user lists
// after a quest document exists are logged and never roll the quest back.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) ([]string, error) {
	plants, err := s.store.Plants(ctx)
	if err != nil {
		return nil, fmt.Errorf("load plants: %w", err)
	}

	var created []string
	for _, plant := range plants {
		for _, questType := range questTypeOrder {
			window := RecurrenceWindows[questType]

			latest, err := s.store.LatestQuest(ctx, plant.ID, questType)
			if err != nil {
				return created, fmt.Errorf("latest %s quest for plant %s: %w", questType, plant.ID, err)
			}
			if latest != nil && now.Sub(latest.CreatedAt) < window {
				continue
			}

			q := &models.Quest{
				Type:         questType,
				PlantID:      plant.ID,
				AssignedTo:   plant.AdoptedBy,
				CreatedAt:    now,
				Status:       models.QuestPending,
				RewardPoints: RewardPoints,
			}
			questID, err := s.store.CreateQuest(ctx, q)
			if err != nil {
				return created, fmt.Errorf("create %s quest for plant %s: %w", questType, plant.ID, err)
			}
			created = append(created, questID)

			if err := s.store.AttachQuestToPlant(ctx, plant.ID, questID); err != nil {
				log.Printf("reconcile: attach quest %s to plant %s: %v", questID, plant.ID, err)
			}

			if plant.AdoptedBy != "" && surfaceToAdopter(questType, plant.LastWatered, now, window) {
				if err := s.store.AddActiveQuest(ctx, plant.AdoptedBy, questID); err != nil {
					log.Printf("reconcile: add quest %s to user %s active list: %v", questID, plant.AdoptedBy, err)
				}
			}
		}
	}
	return created, nil
}

// surfaceToAdopter decides whether a newly created quest also lands on the
// adopter's active list. Watering quests are held back when the plant was
// watered within the last window, so a user is not prompted to water a plant
// they just watered; the quest itself still exists for bookkeeping.
func surfaceToAdopter(questType models.QuestType, lastWatered *time.Time, now time.Time, window time.Duration) bool {
	if questType != models.QuestWaterPlant {
		return true
	}
	return lastWatered == nil || now.Sub(*lastWatered) >= window
}
