package quest

import (
	"context"
	"fmt"
	"log"
	"time"

	"plantquest/models"
)

// Completion applies the quest completion transition across the Quest, User,
// and Plant aggregates.
type Completion struct {
	store Store
}

func NewCompletion(store Store) *Completion {
	return &Completion{store: store}
}

// Complete marks the quest completed and awards its points to userID. The
// quest must exist and be pending; completing an already-completed quest
// returns ErrQuestNotPending with no side effects, so retries never
// double-award points.
//
// The status flip is the durability anchor. Every step after it (points,
// plant timestamps, cache removals) is logged on failure and does not fail
// the call; the reconciler can re-derive those steps from the completed
// quest record.
//
// userID is not checked against the quest's assigned_to; the system
// inherited that gap and keeps it visible rather than silently hardening it.
func (c *Completion) Complete(ctx context.Context, questID, userID string, now time.Time) (int64, error) {
	q, err := c.store.Quest(ctx, questID)
	if err != nil {
		return 0, err
	}
	if q.Status != models.QuestPending {
		return 0, ErrQuestNotPending
	}
	if _, err := c.store.User(ctx, userID); err != nil {
		return 0, err
	}

	if err := c.store.MarkQuestCompleted(ctx, questID, now); err != nil {
		return 0, fmt.Errorf("mark quest %s completed: %w", questID, err)
	}

	// Authoritative write done; everything below is cache and bookkeeping.
	if err := c.store.AwardQuestPoints(ctx, userID, questID, q.RewardPoints); err != nil {
		log.Printf("reconcile: award %d points to user %s for quest %s: %v", q.RewardPoints, userID, questID, err)
	}

	switch q.Type {
	case models.QuestWaterPlant:
		if err := c.store.SetLastWatered(ctx, q.PlantID, now); err != nil {
			log.Printf("reconcile: set last_watered on plant %s: %v", q.PlantID, err)
		}
	case models.QuestHealthAssessment:
		if err := c.store.SetLastHealthAssessment(ctx, q.PlantID, now); err != nil {
			log.Printf("reconcile: set last_health_assessment on plant %s: %v", q.PlantID, err)
		}
	}

	if err := c.store.DetachQuestFromPlant(ctx, q.PlantID, questID); err != nil {
		log.Printf("reconcile: detach quest %s from plant %s: %v", questID, q.PlantID, err)
	}
	if err := c.store.RemoveActiveQuest(ctx, userID, questID); err != nil {
		log.Printf("reconcile: remove quest %s from user %s active list: %v", questID, userID, err)
	}

	return q.RewardPoints, nil
}
