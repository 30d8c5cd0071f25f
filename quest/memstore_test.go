package quest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plantquest/models"
)

// memStore is an in-memory ReconcileStore for engine tests. The fail* flags
// inject denormalized-update failures to exercise the partial-failure paths.
type memStore struct {
	plants map[string]*models.Plant
	users  map[string]*models.User
	quests map[string]*models.Quest
	nextID int

	failAttach       bool
	failDetach       bool
	failAward        bool
	failAddActive    bool
	failRemoveActive bool

	replaceCalls int
}

func newMemStore() *memStore {
	return &memStore{
		plants: map[string]*models.Plant{},
		users:  map[string]*models.User{},
		quests: map[string]*models.Quest{},
	}
}

var errInjected = errors.New("injected store failure")

func (m *memStore) addPlant(p *models.Plant) *models.Plant {
	m.plants[p.ID] = p
	return p
}

func (m *memStore) addUser(u *models.User) *models.User {
	m.users[u.ID] = u
	return u
}

func (m *memStore) addQuest(q *models.Quest) *models.Quest {
	m.quests[q.ID] = q
	return q
}

func (m *memStore) Plant(_ context.Context, plantID string) (*models.Plant, error) {
	p, ok := m.plants[plantID]
	if !ok {
		return nil, ErrPlantNotFound
	}
	return p, nil
}

func (m *memStore) Plants(context.Context) ([]models.Plant, error) {
	out := make([]models.Plant, 0, len(m.plants))
	for _, p := range m.plants {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) User(_ context.Context, userID string) (*models.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) Users(context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memStore) Quest(_ context.Context, questID string) (*models.Quest, error) {
	q, ok := m.quests[questID]
	if !ok {
		return nil, ErrQuestNotFound
	}
	return q, nil
}

func (m *memStore) Quests(context.Context) ([]models.Quest, error) {
	out := make([]models.Quest, 0, len(m.quests))
	for _, q := range m.quests {
		out = append(out, *q)
	}
	return out, nil
}

func (m *memStore) LatestQuest(_ context.Context, plantID string, questType models.QuestType) (*models.Quest, error) {
	var latest *models.Quest
	for _, q := range m.quests {
		if q.PlantID != plantID || q.Type != questType {
			continue
		}
		if latest == nil || q.CreatedAt.After(latest.CreatedAt) {
			latest = q
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *memStore) PendingQuestsForPlant(_ context.Context, plantID string) ([]models.Quest, error) {
	var out []models.Quest
	for _, q := range m.quests {
		if q.PlantID == plantID && q.Status == models.QuestPending {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (m *memStore) CreateQuest(_ context.Context, q *models.Quest) (string, error) {
	m.nextID++
	id := fmt.Sprintf("quest_%04d", m.nextID)
	cp := *q
	cp.ID = id
	m.quests[id] = &cp
	return id, nil
}

func (m *memStore) AttachQuestToPlant(_ context.Context, plantID, questID string) error {
	if m.failAttach {
		return errInjected
	}
	p, ok := m.plants[plantID]
	if !ok {
		return ErrPlantNotFound
	}
	p.Quests = union(p.Quests, []string{questID})
	return nil
}

func (m *memStore) DetachQuestFromPlant(_ context.Context, plantID, questID string) error {
	if m.failDetach {
		return errInjected
	}
	p, ok := m.plants[plantID]
	if !ok {
		return ErrPlantNotFound
	}
	p.Quests = remove(p.Quests, questID)
	return nil
}

func (m *memStore) AddActiveQuest(_ context.Context, userID, questID string) error {
	if m.failAddActive {
		return errInjected
	}
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.ActiveQuests = union(u.ActiveQuests, []string{questID})
	return nil
}

func (m *memStore) RemoveActiveQuest(_ context.Context, userID, questID string) error {
	if m.failRemoveActive {
		return errInjected
	}
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.ActiveQuests = remove(u.ActiveQuests, questID)
	return nil
}

func (m *memStore) MarkQuestCompleted(_ context.Context, questID string, at time.Time) error {
	q, ok := m.quests[questID]
	if !ok {
		return ErrQuestNotFound
	}
	ts := at
	q.Status = models.QuestCompleted
	q.Proof = models.ProofSubmission{Timestamp: &ts, Verified: true}
	return nil
}

func (m *memStore) AwardQuestPoints(_ context.Context, userID, questID string, points int64) error {
	if m.failAward {
		return errInjected
	}
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.QuestsCompleted = union(u.QuestsCompleted, []string{questID})
	u.EcoPoints += points
	return nil
}

func (m *memStore) SetLastWatered(_ context.Context, plantID string, at time.Time) error {
	p, ok := m.plants[plantID]
	if !ok {
		return ErrPlantNotFound
	}
	ts := at
	p.LastWatered = &ts
	return nil
}

func (m *memStore) SetLastHealthAssessment(_ context.Context, plantID string, at time.Time) error {
	p, ok := m.plants[plantID]
	if !ok {
		return ErrPlantNotFound
	}
	ts := at
	p.LastHealthAssessment = &ts
	return nil
}

func (m *memStore) ReplacePlantQuests(_ context.Context, plantID string, questIDs []string) error {
	p, ok := m.plants[plantID]
	if !ok {
		return ErrPlantNotFound
	}
	m.replaceCalls++
	p.Quests = append([]string{}, questIDs...)
	return nil
}

func (m *memStore) ReplaceUserQuestState(_ context.Context, userID string, active, completed []string, ecoPoints int64) error {
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	m.replaceCalls++
	u.ActiveQuests = append([]string{}, active...)
	u.QuestsCompleted = append([]string{}, completed...)
	u.EcoPoints = ecoPoints
	return nil
}

func remove(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
