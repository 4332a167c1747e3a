package pgshipment

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/minsu-dev/parceltrack/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) FindShipment(ctx context.Context, carrierCode, trackingNumber string) (*models.Shipment, error) {
	var sh models.Shipment
	err := s.db.QueryRow(ctx, `
SELECT
  sh.id, sh.carrier_id, sh.tracking_number, sh.current_status,
  sh.estimated_delivery, sh.sender, sh.recipient,
  sh.created_at, sh.updated_at
FROM shipments sh
JOIN carriers c ON c.id = sh.carrier_id
WHERE sh.tracking_number = $1 AND c.code = $2
`, trackingNumber, carrierCode).Scan(
		&sh.ID, &sh.CarrierID, &sh.TrackingNumber, &sh.CurrentStatus,
		&sh.EstimatedDelivery, &sh.Sender, &sh.Recipient,
		&sh.CreatedAt, &sh.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrShipmentNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment")
	}
	return &sh, nil
}

// UpsertShipment пишет отправление атомарно: конкурентные первые submit
// одного номера не приводят к ошибке уникальности.
func (s *Storage) UpsertShipment(ctx context.Context, in models.ShipmentUpsert) (*models.Shipment, error) {
	return s.upsertShipment(ctx, s.db, in)
}

// querier покрывает и пул, и транзакцию.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (s *Storage) upsertShipment(ctx context.Context, q querier, in models.ShipmentUpsert) (*models.Shipment, error) {
	var sh models.Shipment
	err := q.QueryRow(ctx, `
INSERT INTO shipments (
  carrier_id, tracking_number, current_status,
  estimated_delivery, sender, recipient, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6, now(), now())
ON CONFLICT (carrier_id, tracking_number)
DO UPDATE SET
  current_status = EXCLUDED.current_status,
  estimated_delivery = EXCLUDED.estimated_delivery,
  sender = EXCLUDED.sender,
  recipient = EXCLUDED.recipient,
  updated_at = now()
RETURNING
  id, carrier_id, tracking_number, current_status,
  estimated_delivery, sender, recipient, created_at, updated_at
`, in.CarrierID, in.TrackingNumber, in.CurrentStatus,
		in.EstimatedDelivery, in.Sender, in.Recipient,
	).Scan(
		&sh.ID, &sh.CarrierID, &sh.TrackingNumber, &sh.CurrentStatus,
		&sh.EstimatedDelivery, &sh.Sender, &sh.Recipient,
		&sh.CreatedAt, &sh.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "upsert shipment")
	}
	return &sh, nil
}

// SubmitShipment выполняет upsert и полную замену истории одной
// транзакцией: читатель видит либо старый список событий, либо новый.
func (s *Storage) SubmitShipment(ctx context.Context, in models.ShipmentUpsert, events []models.TrackingEvent) (*models.Shipment, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sh, err := s.upsertShipment(ctx, tx, in)
	if err != nil {
		return nil, err
	}

	if len(events) > 0 {
		if err := s.replaceEvents(ctx, tx, sh.ID, events); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return sh, nil
}
