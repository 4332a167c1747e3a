package pgshipment

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/minsu-dev/parceltrack/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) ListEvents(ctx context.Context, shipmentID uint64) ([]models.TrackingEvent, error) {
	rows, err := s.db.Query(ctx, `
SELECT event_time, location, status, note
FROM shipment_events
WHERE shipment_id = $1
ORDER BY event_time ASC, id ASC
`, shipmentID)
	if err != nil {
		return nil, errors.Wrap(err, "select events")
	}
	defer rows.Close()

	out := make([]models.TrackingEvent, 0)
	for rows.Next() {
		var e models.TrackingEvent
		var note *string
		if err := rows.Scan(&e.Time, &e.Location, &e.Status, &note); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		if note != nil {
			e.Note = *note
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// ReplaceEvents меняет историю отправления целиком. Пустой список —
// no-op: существующие события остаются нетронутыми.
func (s *Storage) ReplaceEvents(ctx context.Context, shipmentID uint64, events []models.TrackingEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.replaceEvents(ctx, tx, shipmentID, events); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func (s *Storage) replaceEvents(ctx context.Context, q querier, shipmentID uint64, events []models.TrackingEvent) error {
	if _, err := q.Exec(ctx, `DELETE FROM shipment_events WHERE shipment_id = $1`, shipmentID); err != nil {
		return errors.Wrap(err, "delete events")
	}

	for _, e := range events {
		var note *string
		if e.Note != "" {
			n := e.Note
			note = &n
		}
		_, err := q.Exec(ctx, `
INSERT INTO shipment_events (shipment_id, event_time, location, status, note, created_at)
VALUES ($1,$2,$3,$4,$5, now())
`, shipmentID, e.Time, e.Location, e.Status, note)
		if err != nil {
			return errors.Wrap(err, "insert event")
		}
	}
	return nil
}
