package quest

import "errors"

var (
	ErrPlantNotFound = errors.New("plant not found")
	ErrQuestNotFound = errors.New("quest not found")
	ErrUserNotFound  = errors.New("user not found")

	// ErrUserLocationUnset is returned by the nearby finder when the user
	// has never reported a location.
	ErrUserLocationUnset = errors.New("user location not set")

	// ErrQuestNotPending is returned when completing a quest that is not in
	// the pending state. Completed quests are terminal; re-completing one
	// has no effect on eco-points.
	ErrQuestNotPending = errors.New("quest is not pending")
)
