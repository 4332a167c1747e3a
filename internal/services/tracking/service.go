package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/minsu-dev/parceltrack/internal/cache"
	"github.com/minsu-dev/parceltrack/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	FindCarrierByCode(ctx context.Context, code string) (*models.Carrier, error)
	CreateOrGetCarrier(ctx context.Context, code, name string) (*models.Carrier, error)
	FindShipment(ctx context.Context, carrierCode, trackingNumber string) (*models.Shipment, error)
	SubmitShipment(ctx context.Context, in models.ShipmentUpsert, events []models.TrackingEvent) (*models.Shipment, error)
	ListEvents(ctx context.Context, shipmentID uint64) ([]models.TrackingEvent, error)
}

// ValidationError — отсутствующее или некорректное поле запроса.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type Service struct {
	repo        Repository
	cache       cache.BytesCache
	snapshotTTL time.Duration
}

func New(repo Repository, c cache.BytesCache, snapshotTTL time.Duration) *Service {
	return &Service{repo: repo, cache: c, snapshotTTL: snapshotTTL}
}

// Lookup возвращает текущее состояние отправления по коду перевозчика
// и трек-номеру.
func (s *Service) Lookup(ctx context.Context, carrierCode, trackingNumber string) (*models.TrackingInfo, error) {
	carrierCode = strings.TrimSpace(carrierCode)
	trackingNumber = strings.TrimSpace(trackingNumber)
	if carrierCode == "" {
		return nil, validationf("carrier code is required")
	}
	if trackingNumber == "" {
		return nil, validationf("tracking number is required")
	}

	// Кэш хранит готовый снапшот ответа; лучшее усилие, БД — источник истины.
	if s.cache != nil && s.snapshotTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, snapshotKey(carrierCode, trackingNumber)); err == nil && ok {
			var info models.TrackingInfo
			if json.Unmarshal(b, &info) == nil {
				return &info, nil
			}
		}
	}

	carrier, err := s.repo.FindCarrierByCode(ctx, carrierCode)
	if err != nil {
		return nil, err
	}

	sh, err := s.repo.FindShipment(ctx, carrier.Code, trackingNumber)
	if err != nil {
		return nil, err
	}

	info, err := s.buildInfo(ctx, carrier, sh)
	if err != nil {
		return nil, err
	}

	s.primeSnapshot(ctx, info)
	return info, nil
}

// Submit создаёт или обновляет отправление и при непустой истории
// целиком заменяет сохранённые события.
func (s *Service) Submit(ctx context.Context, req models.SubmitRequest) (*models.TrackingInfo, error) {
	req.Carrier = strings.TrimSpace(req.Carrier)
	req.TrackingNumber = strings.TrimSpace(req.TrackingNumber)
	if req.Carrier == "" {
		return nil, validationf("carrier is required")
	}
	if req.TrackingNumber == "" {
		return nil, validationf("tracking number is required")
	}
	for _, e := range req.History {
		if !models.IsKnownStatus(e.Status) {
			return nil, validationf("unknown status: %s", e.Status)
		}
	}

	carrier, err := s.repo.CreateOrGetCarrier(ctx, req.Carrier, models.CarrierNameFor(req.Carrier))
	if err != nil {
		return nil, err
	}

	currentStatus := models.StatusReceived
	if len(req.History) > 0 {
		currentStatus = req.History[len(req.History)-1].Status
	}

	sh, err := s.repo.SubmitShipment(ctx, models.ShipmentUpsert{
		CarrierID:         carrier.ID,
		TrackingNumber:    req.TrackingNumber,
		CurrentStatus:     currentStatus,
		EstimatedDelivery: optional(req.EstimatedDelivery),
		Sender:            optional(req.Sender),
		Recipient:         optional(req.Recipient),
	}, req.History)
	if err != nil {
		return nil, err
	}

	info, err := s.buildInfo(ctx, carrier, sh)
	if err != nil {
		return nil, err
	}

	s.primeSnapshot(ctx, info)
	return info, nil
}

func (s *Service) buildInfo(ctx context.Context, carrier *models.Carrier, sh *models.Shipment) (*models.TrackingInfo, error) {
	events, err := s.repo.ListEvents(ctx, sh.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}

	return &models.TrackingInfo{
		Carrier:           carrier.Code,
		CarrierName:       carrier.Name,
		TrackingNumber:    sh.TrackingNumber,
		CurrentStatus:     sh.CurrentStatus,
		EstimatedDelivery: deref(sh.EstimatedDelivery),
		History:           events,
		Sender:            deref(sh.Sender),
		Recipient:         deref(sh.Recipient),
	}, nil
}

func (s *Service) primeSnapshot(ctx context.Context, info *models.TrackingInfo) {
	if s.cache == nil || s.snapshotTTL <= 0 {
		return
	}
	b, err := json.Marshal(info)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, snapshotKey(info.Carrier, info.TrackingNumber), b, s.snapshotTTL)
}

func snapshotKey(carrierCode, trackingNumber string) string {
	return fmt.Sprintf("tracking:%s:%s:current", carrierCode, trackingNumber)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
