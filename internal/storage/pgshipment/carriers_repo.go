package pgshipment

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/minsu-dev/parceltrack/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) FindCarrierByCode(ctx context.Context, code string) (*models.Carrier, error) {
	var c models.Carrier
	err := s.db.QueryRow(ctx, `
SELECT id, code, name
FROM carriers
WHERE code = $1
`, code).Scan(&c.ID, &c.Code, &c.Name)
	if err == pgx.ErrNoRows {
		return nil, models.ErrCarrierNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select carrier")
	}
	return &c, nil
}

// CreateOrGetCarrier создаёт перевозчика при первом обращении.
// Имя существующей записи не перезаписывается: справочник only-append.
func (s *Storage) CreateOrGetCarrier(ctx context.Context, code, name string) (*models.Carrier, error) {
	var c models.Carrier
	err := s.db.QueryRow(ctx, `
INSERT INTO carriers (code, name)
VALUES ($1, $2)
ON CONFLICT (code) DO UPDATE SET code = carriers.code
RETURNING id, code, name
`, code, name).Scan(&c.ID, &c.Code, &c.Name)
	if err != nil {
		return nil, errors.Wrap(err, "insert carrier")
	}
	return &c, nil
}
