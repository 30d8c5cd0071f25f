package quest

import (
	"context"
	"testing"
	"time"

	"plantquest/models"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRunOnceCreatesAllQuestTypes(t *testing.T) {
	store := newMemStore()
	store.addPlant(&models.Plant{ID: "plant_1", Species: "Ocimum basilicum", Location: models.Location{}})

	created, err := NewScheduler(store).RunOnce(context.Background(), t0)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(created) != len(RecurrenceWindows) {
		t.Fatalf("created %d quests, want %d", len(created), len(RecurrenceWindows))
	}

	seen := map[models.QuestType]bool{}
	for _, id := range created {
		q := store.quests[id]
		if q == nil {
			t.Fatalf("created quest %s not stored", id)
		}
		seen[q.Type] = true
		if q.Status != models.QuestPending {
			t.Errorf("quest %s status = %q, want pending", id, q.Status)
		}
		if q.RewardPoints != RewardPoints {
			t.Errorf("quest %s reward = %d, want %d", id, q.RewardPoints, RewardPoints)
		}
		if q.AssignedTo != "" {
			t.Errorf("unadopted plant quest assigned to %q, want empty", q.AssignedTo)
		}
		if !q.CreatedAt.Equal(t0) {
			t.Errorf("quest %s created_at = %v, want %v", id, q.CreatedAt, t0)
		}
	}
	for questType := range RecurrenceWindows {
		if !seen[questType] {
			t.Errorf("no quest created for type %q", questType)
		}
	}
	if got := len(store.plants["plant_1"].Quests); got != len(created) {
		t.Errorf("plant quest cache has %d entries, want %d", got, len(created))
	}
}

func TestRunOnceIsIdempotentWithoutClockAdvance(t *testing.T) {
	store := newMemStore()
	store.addPlant(&models.Plant{ID: "plant_1"})
	scheduler := NewScheduler(store)

	if _, err := scheduler.RunOnce(context.Background(), t0); err != nil {
		t.Fatalf("first RunOnce: %v", err)
	}
	created, err := scheduler.RunOnce(context.Background(), t0)
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("second run created %d quests, want 0", len(created))
	}
}

func TestRunOnceRespectsRecurrenceWindows(t *testing.T) {
	store := newMemStore()
	store.addPlant(&models.Plant{ID: "plant_1"})
	scheduler := NewScheduler(store)

	if _, err := scheduler.RunOnce(context.Background(), t0); err != nil {
		t.Fatalf("first RunOnce: %v", err)
	}

	// One day later only the watering window has elapsed.
	created, err := scheduler.RunOnce(context.Background(), t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("RunOnce at +24h: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d quests at +24h, want 1", len(created))
	}
	if q := store.quests[created[0]]; q.Type != models.QuestWaterPlant {
		t.Errorf("quest at +24h is %q, want %q", q.Type, models.QuestWaterPlant)
	}

	// Three days in, the health and growth windows open; watering opened
	// again as well.
	created, err = scheduler.RunOnce(context.Background(), t0.Add(72*time.Hour))
	if err != nil {
		t.Fatalf("RunOnce at +72h: %v", err)
	}
	types := map[models.QuestType]bool{}
	for _, id := range created {
		types[store.quests[id].Type] = true
	}
	if !types[models.QuestHealthAssessment] || !types[models.QuestGrowthReport] || !types[models.QuestWaterPlant] {
		t.Errorf("types at +72h = %v, want watering, health, and growth", types)
	}
	if types[models.QuestPhotoSubmission] {
		t.Error("photo submission created at +72h, want only at +168h")
	}
}

func TestRunOnceAssignsAdoptedPlantQuests(t *testing.T) {
	store := newMemStore()
	store.addUser(&models.User{ID: "user_1"})
	store.addPlant(&models.Plant{ID: "plant_1", AdoptedBy: "user_1"})

	created, err := NewScheduler(store).RunOnce(context.Background(), t0)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	for _, id := range created {
		if got := store.quests[id].AssignedTo; got != "user_1" {
			t.Errorf("quest %s assigned to %q, want user_1", id, got)
		}
	}
	// Never-watered plant: the watering quest surfaces too.
	if got := len(store.users["user_1"].ActiveQuests); got != len(created) {
		t.Errorf("user active list has %d quests, want %d", got, len(created))
	}
}

func TestRunOnceHoldsBackFreshlyWateredQuest(t *testing.T) {
	store := newMemStore()
	store.addUser(&models.User{ID: "user_1"})
	watered := t0.Add(-time.Hour)
	store.addPlant(&models.Plant{ID: "plant_1", AdoptedBy: "user_1", LastWatered: &watered})

	created, err := NewScheduler(store).RunOnce(context.Background(), t0)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(created) != len(RecurrenceWindows) {
		t.Fatalf("created %d quests, want %d; the watering quest is still recorded", len(created), len(RecurrenceWindows))
	}

	active := store.users["user_1"].ActiveQuests
	if len(active) != len(RecurrenceWindows)-1 {
		t.Fatalf("active list has %d quests, want %d (watering held back)", len(active), len(RecurrenceWindows)-1)
	}
	for _, id := range active {
		if store.quests[id].Type == models.QuestWaterPlant {
			t.Error("watering quest surfaced despite recent watering")
		}
	}
}

func TestRunOnceSurfacesStaleWateringQuest(t *testing.T) {
	store := newMemStore()
	store.addUser(&models.User{ID: "user_1"})
	watered := t0.Add(-25 * time.Hour)
	store.addPlant(&models.Plant{ID: "plant_1", AdoptedBy: "user_1", LastWatered: &watered})

	if _, err := NewScheduler(store).RunOnce(context.Background(), t0); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	var surfaced bool
	for _, id := range store.users["user_1"].ActiveQuests {
		if store.quests[id].Type == models.QuestWaterPlant {
			surfaced = true
		}
	}
	if !surfaced {
		t.Error("watering quest not surfaced despite a day-old last_watered")
	}
}

func TestRunOnceSurvivesCacheUpdateFailure(t *testing.T) {
	store := newMemStore()
	store.failAttach = true
	store.failAddActive = true
	store.addUser(&models.User{ID: "user_1"})
	store.addPlant(&models.Plant{ID: "plant_1", AdoptedBy: "user_1"})

	created, err := NewScheduler(store).RunOnce(context.Background(), t0)
	if err != nil {
		t.Fatalf("RunOnce: %v, cache failures must not fail the run", err)
	}
	if len(created) != len(RecurrenceWindows) {
		t.Errorf("created %d quests, want %d despite cache failures", len(created), len(RecurrenceWindows))
	}
	// The quest documents are the source of truth and must exist.
	if len(store.quests) != len(RecurrenceWindows) {
		t.Errorf("stored %d quests, want %d", len(store.quests), len(RecurrenceWindows))
	}
}
