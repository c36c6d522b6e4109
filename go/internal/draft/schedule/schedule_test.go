package schedule

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seats(n int) ([]models.Seat, []uuid.UUID) {
	ids := make([]uuid.UUID, n)
	out := make([]models.Seat, n)
	for i := range ids {
		ids[i] = uuid.New()
		out[i] = models.Seat{Seat: i + 1, ParticipantID: ids[i]}
	}
	return out, ids
}

func seatOrder(s models.TurnSchedule) []int {
	out := make([]int, len(s))
	for i, slot := range s {
		out[i] = slot.Seat
	}
	return out
}

func TestGenerate_SnakeFourByTwo(t *testing.T) {
	seating, ids := seats(4)
	cfg := models.DraftConfiguration{Participants: 4, Rounds: 2, Mode: models.OrderingModeSnake}

	got, err := Generate(cfg, seating)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 4, 3, 2, 1}, seatOrder(got))
	assert.Equal(t, ids[3], got[3].ParticipantID)
	assert.Equal(t, ids[3], got[4].ParticipantID)
	assert.Equal(t, 2, got[4].Round)
	assert.Equal(t, 1, got[4].PositionInRound)
}

func TestGenerate_Straight(t *testing.T) {
	seating, _ := seats(3)
	cfg := models.DraftConfiguration{Participants: 3, Rounds: 3, Mode: models.OrderingModeStraight}

	got, err := Generate(cfg, seating)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 1, 2, 3, 1, 2, 3}, seatOrder(got))
}

func TestGenerate_Properties(t *testing.T) {
	for _, mode := range []models.OrderingMode{models.OrderingModeSnake, models.OrderingModeStraight} {
		for p := 1; p <= 6; p++ {
			for r := 1; r <= 5; r++ {
				seating, _ := seats(p)
				cfg := models.DraftConfiguration{Participants: p, Rounds: r, Mode: mode}
				got, err := Generate(cfg, seating)
				require.NoError(t, err)
				require.Len(t, got, p*r)

				perSeat := map[int]int{}
				for i, slot := range got {
					assert.Equal(t, i+1, slot.PickNumber)
					perSeat[slot.Seat]++
				}
				for seat := 1; seat <= p; seat++ {
					assert.Equal(t, r, perSeat[seat], "mode=%s p=%d r=%d seat=%d", mode, p, r, seat)
				}

				if mode != models.OrderingModeSnake {
					continue
				}
				for k := 1; k < r; k++ {
					cur := seatOrder(got[(k-1)*p : k*p])
					next := seatOrder(got[k*p : (k+1)*p])
					for i := range cur {
						assert.Equal(t, cur[i], next[p-1-i])
					}
				}
			}
		}
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	seating, _ := seats(5)
	cfg := models.DraftConfiguration{Participants: 5, Rounds: 4, Mode: models.OrderingModeSnake}

	a, err := Generate(cfg, seating)
	require.NoError(t, err)
	b, err := Generate(cfg, seating)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_IncompleteSeating(t *testing.T) {
	seating, ids := seats(3)
	cfg := models.DraftConfiguration{Participants: 4, Rounds: 1, Mode: models.OrderingModeSnake}

	_, err := Generate(cfg, seating)
	assert.ErrorIs(t, err, ErrIncompleteSeating)

	dup := append(seating, models.Seat{Seat: 4, ParticipantID: ids[0]})
	_, err = Generate(cfg, dup)
	assert.ErrorIs(t, err, ErrIncompleteSeating)

	gap := append(seating[:3:3], models.Seat{Seat: 3, ParticipantID: uuid.New()})
	_, err = Generate(cfg, gap)
	assert.ErrorIs(t, err, ErrIncompleteSeating)
}

func TestRotateToEnd(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	tail := []models.ScheduleSlot{
		{PickNumber: 5, Seat: 1, ParticipantID: a},
		{PickNumber: 6, Seat: 2, ParticipantID: b},
		{PickNumber: 7, Seat: 3, ParticipantID: c},
	}

	got, changed := RotateToEnd(tail)
	require.True(t, changed)
	assert.Equal(t, []int{5, 6, 7}, []int{got[0].PickNumber, got[1].PickNumber, got[2].PickNumber})
	assert.Equal(t, []uuid.UUID{b, c, a}, []uuid.UUID{got[0].ParticipantID, got[1].ParticipantID, got[2].ParticipantID})
	assert.Equal(t, a, tail[0].ParticipantID, "input must not be mutated")

	_, changed = RotateToEnd(tail[2:])
	assert.False(t, changed)
}
