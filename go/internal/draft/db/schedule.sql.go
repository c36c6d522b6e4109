package db

import (
	"context"

	"github.com/google/uuid"
)

const deleteSeats = `DELETE FROM draft_seats WHERE draft_id = $1`

func (q *Queries) DeleteSeats(ctx context.Context, draftID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteSeats, draftID)
	return err
}

const insertSeat = `INSERT INTO draft_seats (draft_id, seat, participant_id) VALUES ($1, $2, $3)`

func (q *Queries) InsertSeat(ctx context.Context, arg DraftSeat) error {
	_, err := q.db.ExecContext(ctx, insertSeat, arg.DraftID, arg.Seat, arg.ParticipantID)
	return err
}

const listSeats = `SELECT draft_id, seat, participant_id FROM draft_seats WHERE draft_id = $1 ORDER BY seat`

func (q *Queries) ListSeats(ctx context.Context, draftID uuid.UUID) ([]DraftSeat, error) {
	rows, err := q.db.QueryContext(ctx, listSeats, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DraftSeat
	for rows.Next() {
		var i DraftSeat
		if err := rows.Scan(&i.DraftID, &i.Seat, &i.ParticipantID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// upsertScheduleSlot never rewrites a slot that already has a committed pick.
const upsertScheduleSlot = `
INSERT INTO draft_schedule (draft_id, pick_number, round, position_in_round, seat, participant_id)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (draft_id, pick_number) DO UPDATE
SET round = EXCLUDED.round,
    position_in_round = EXCLUDED.position_in_round,
    seat = EXCLUDED.seat,
    participant_id = EXCLUDED.participant_id
WHERE NOT EXISTS (
    SELECT 1 FROM draft_picks p
    WHERE p.draft_id = EXCLUDED.draft_id AND p.pick_number = EXCLUDED.pick_number
)
`

func (q *Queries) UpsertScheduleSlot(ctx context.Context, arg DraftSchedule) error {
	_, err := q.db.ExecContext(ctx, upsertScheduleSlot,
		arg.DraftID,
		arg.PickNumber,
		arg.Round,
		arg.PositionInRound,
		arg.Seat,
		arg.ParticipantID,
	)
	return err
}

const listSchedule = `
SELECT draft_id, pick_number, round, position_in_round, seat, participant_id
FROM draft_schedule
WHERE draft_id = $1
ORDER BY pick_number
`

func (q *Queries) ListSchedule(ctx context.Context, draftID uuid.UUID) ([]DraftSchedule, error) {
	rows, err := q.db.QueryContext(ctx, listSchedule, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DraftSchedule
	for rows.Next() {
		var i DraftSchedule
		if err := rows.Scan(
			&i.DraftID,
			&i.PickNumber,
			&i.Round,
			&i.PositionInRound,
			&i.Seat,
			&i.ParticipantID,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
