package quest

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"plantquest/models"
)

// Reconciler rebuilds the denormalized caches from the authoritative Quest
// records: Plant.quests from pending quests, User.active_quests from pending
// assigned quests (minus watering quests currently held back),
// User.quests_completed as a union with completed assigned quests, and
// eco_points from the completed set plus registration bonuses.
//
// Repair is idempotent; it can run after any "reconcile:" log line, or on a
// schedule, without double effects.
type Reconciler struct {
	store ReconcileStore
}

func NewReconciler(store ReconcileStore) *Reconciler {
	return &Reconciler{store: store}
}

// Repair scans all quests once and rewrites any cache that drifted. It keeps
// going past per-document failures and reports the first error at the end.
func (r *Reconciler) Repair(ctx context.Context, now time.Time) error {
	quests, err := r.store.Quests(ctx)
	if err != nil {
		return fmt.Errorf("load quests: %w", err)
	}
	plants, err := r.store.Plants(ctx)
	if err != nil {
		return fmt.Errorf("load plants: %w", err)
	}
	plantByID := make(map[string]*models.Plant, len(plants))
	for i := range plants {
		plantByID[plants[i].ID] = &plants[i]
	}

	pendingByPlant := map[string][]string{}
	pendingByUser := map[string][]string{}
	completedByUser := map[string][]string{}
	rewardByQuest := map[string]int64{}
	for _, q := range quests {
		rewardByQuest[q.ID] = q.RewardPoints
		switch q.Status {
		case models.QuestPending:
			pendingByPlant[q.PlantID] = append(pendingByPlant[q.PlantID], q.ID)
			if q.AssignedTo == "" {
				continue
			}
			// A watering quest the scheduler held back (plant watered within
			// the window) stays off the active list here too; rebuilding the
			// cache must not re-surface it.
			var lastWatered *time.Time
			if p, ok := plantByID[q.PlantID]; ok {
				lastWatered = p.LastWatered
			}
			if surfaceToAdopter(q.Type, lastWatered, now, RecurrenceWindows[q.Type]) {
				pendingByUser[q.AssignedTo] = append(pendingByUser[q.AssignedTo], q.ID)
			}
		case models.QuestCompleted:
			if q.AssignedTo != "" {
				completedByUser[q.AssignedTo] = append(completedByUser[q.AssignedTo], q.ID)
			}
		}
	}

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, plant := range plants {
		want := pendingByPlant[plant.ID]
		if sameSet(plant.Quests, want) {
			continue
		}
		log.Printf("reconcile: rebuilding quest cache for plant %s (%d -> %d entries)", plant.ID, len(plant.Quests), len(want))
		keep(r.store.ReplacePlantQuests(ctx, plant.ID, sorted(want)))
	}

	users, err := r.store.Users(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	for _, user := range users {
		active := pendingByUser[user.ID]
		// Completed quests may have been finished by someone other than the
		// assignee, so the existing list is kept and only extended.
		completed := union(user.QuestsCompleted, completedByUser[user.ID])

		points := RegistrationPoints * int64(len(user.AddedPlants))
		for _, questID := range completed {
			points += rewardByQuest[questID]
		}

		if sameSet(user.ActiveQuests, active) && sameSet(user.QuestsCompleted, completed) && user.EcoPoints == points {
			continue
		}
		log.Printf("reconcile: rebuilding quest state for user %s", user.ID)
		keep(r.store.ReplaceUserQuestState(ctx, user.ID, sorted(active), sorted(completed), points))
	}

	return firstErr
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			return false
		}
	}
	return true
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func sorted(s []string) []string {
	out := append([]string{}, s...)
	sort.Strings(out)
	return out
}
