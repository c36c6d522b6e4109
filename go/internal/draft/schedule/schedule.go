// Package schedule builds and rewrites turn schedules.
package schedule

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/models"
)

// ErrIncompleteSeating is returned when seats 1..P are not each bound to exactly one participant.
var ErrIncompleteSeating = errors.New("incomplete seating")

// Generate computes the full schedule for a draft. It is a pure function of its inputs.
func Generate(cfg models.DraftConfiguration, seating []models.Seat) (models.TurnSchedule, error) {
	if cfg.Participants <= 0 || cfg.Rounds <= 0 {
		return nil, fmt.Errorf("invalid draft size %dx%d", cfg.Participants, cfg.Rounds)
	}
	bySeat, err := SeatMap(cfg.Participants, seating)
	if err != nil {
		return nil, err
	}

	total := cfg.TotalPicks()
	out := make(models.TurnSchedule, 0, total)
	for n := 1; n <= total; n++ {
		round, pos := RoundAndPosition(n, cfg.Participants)
		seat := SeatFor(cfg.Mode, cfg.Participants, round, pos)
		out = append(out, models.ScheduleSlot{
			PickNumber:      n,
			Round:           round,
			PositionInRound: pos,
			Seat:            seat,
			ParticipantID:   bySeat[seat],
		})
	}
	return out, nil
}

// SeatMap validates the seat bijection and indexes it by seat.
func SeatMap(participants int, seating []models.Seat) (map[int]uuid.UUID, error) {
	if len(seating) != participants {
		return nil, fmt.Errorf("%w: %d of %d seats assigned", ErrIncompleteSeating, len(seating), participants)
	}
	bySeat := make(map[int]uuid.UUID, participants)
	seen := make(map[uuid.UUID]int, participants)
	for _, s := range seating {
		if s.Seat < 1 || s.Seat > participants {
			return nil, fmt.Errorf("%w: seat %d out of range 1..%d", ErrIncompleteSeating, s.Seat, participants)
		}
		if _, dup := bySeat[s.Seat]; dup {
			return nil, fmt.Errorf("%w: seat %d assigned twice", ErrIncompleteSeating, s.Seat)
		}
		if other, dup := seen[s.ParticipantID]; dup {
			return nil, fmt.Errorf("%w: participant %s holds seats %d and %d", ErrIncompleteSeating, s.ParticipantID, other, s.Seat)
		}
		bySeat[s.Seat] = s.ParticipantID
		seen[s.ParticipantID] = s.Seat
	}
	return bySeat, nil
}

// RoundAndPosition maps an overall pick number to its round and 1-indexed position in that round.
func RoundAndPosition(n, participants int) (round, pos int) {
	round = (n + participants - 1) / participants
	pos = n - (round-1)*participants
	return round, pos
}

// SeatFor returns the seat that picks at the given position of a round.
func SeatFor(mode models.OrderingMode, participants, round, pos int) int {
	if mode == models.OrderingModeSnake && round%2 == 0 {
		return participants - pos + 1
	}
	return pos
}

// RotateToEnd moves the participant of the first unpicked slot to the last one and
// shifts every other unpicked assignment one slot earlier. Slots keep their pick
// numbers, rounds and positions; only the participant (and seat) moves.
// The input must be the unpicked tail ordered by pick number. It returns the
// rewritten slots and false when there is nothing to rotate.
func RotateToEnd(unpicked []models.ScheduleSlot) ([]models.ScheduleSlot, bool) {
	if len(unpicked) < 2 {
		return unpicked, false
	}
	out := make([]models.ScheduleSlot, len(unpicked))
	copy(out, unpicked)
	first := unpicked[0]
	for i := 0; i < len(out)-1; i++ {
		out[i].ParticipantID = unpicked[i+1].ParticipantID
		out[i].Seat = unpicked[i+1].Seat
	}
	out[len(out)-1].ParticipantID = first.ParticipantID
	out[len(out)-1].Seat = first.Seat
	return out, true
}
