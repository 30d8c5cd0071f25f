package quest

import (
	"context"
	"errors"
	"math"
	"testing"

	"plantquest/models"
)

const metersPerDegreeLat = 6371000 * math.Pi / 180

func TestFindReturnsQuestsWithinRadius(t *testing.T) {
	store := newMemStore()
	center := models.Location{Lat: 12.97, Lng: 77.59}
	store.addUser(&models.User{ID: "user_1", Location: &center})

	near := models.Location{Lat: center.Lat + 499.9/metersPerDegreeLat, Lng: center.Lng}
	far := models.Location{Lat: center.Lat + 500.1/metersPerDegreeLat, Lng: center.Lng}
	store.addPlant(&models.Plant{ID: "plant_near", Location: near})
	store.addPlant(&models.Plant{ID: "plant_far", Location: far})
	store.addQuest(&models.Quest{ID: "quest_near", PlantID: "plant_near", Type: models.QuestWaterPlant, Status: models.QuestPending})
	store.addQuest(&models.Quest{ID: "quest_far", PlantID: "plant_far", Type: models.QuestWaterPlant, Status: models.QuestPending})

	quests, err := NewNearbyFinder(store).Find(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(quests) != 1 {
		t.Fatalf("found %d quests, want 1 (499.9 m in, 500.1 m out)", len(quests))
	}
	if quests[0].ID != "quest_near" {
		t.Errorf("found quest %q, want quest_near", quests[0].ID)
	}
}

func TestFindSkipsCompletedQuests(t *testing.T) {
	store := newMemStore()
	loc := models.Location{Lat: 1, Lng: 1}
	store.addUser(&models.User{ID: "user_1", Location: &loc})
	store.addPlant(&models.Plant{ID: "plant_1", Location: loc})
	store.addQuest(&models.Quest{ID: "quest_done", PlantID: "plant_1", Status: models.QuestCompleted})
	store.addQuest(&models.Quest{ID: "quest_open", PlantID: "plant_1", Status: models.QuestPending})

	quests, err := NewNearbyFinder(store).Find(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(quests) != 1 || quests[0].ID != "quest_open" {
		t.Errorf("quests = %v, want only the pending quest", quests)
	}
}

func TestFindWithoutLocation(t *testing.T) {
	store := newMemStore()
	store.addUser(&models.User{ID: "user_1"})

	_, err := NewNearbyFinder(store).Find(context.Background(), "user_1")
	if !errors.Is(err, ErrUserLocationUnset) {
		t.Errorf("Find = %v, want ErrUserLocationUnset", err)
	}
}

func TestFindUnknownUser(t *testing.T) {
	store := newMemStore()
	_, err := NewNearbyFinder(store).Find(context.Background(), "user_missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Find = %v, want ErrUserNotFound", err)
	}
}
