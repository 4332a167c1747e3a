package tracking

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/minsu-dev/parceltrack/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	carriers map[string]*models.Carrier

	createdCode string
	createdName string

	findShipmentOut *models.Shipment
	findShipmentErr error

	submitIn     models.ShipmentUpsert
	submitEvents []models.TrackingEvent
	submitOut    *models.Shipment
	submitErr    error

	listOut []models.TrackingEvent
	listErr error
}

func (f *fakeRepo) FindCarrierByCode(ctx context.Context, code string) (*models.Carrier, error) {
	if c, ok := f.carriers[code]; ok {
		return c, nil
	}
	return nil, models.ErrCarrierNotFound
}

func (f *fakeRepo) CreateOrGetCarrier(ctx context.Context, code, name string) (*models.Carrier, error) {
	f.createdCode = code
	f.createdName = name
	if c, ok := f.carriers[code]; ok {
		return c, nil
	}
	return &models.Carrier{ID: 99, Code: code, Name: name}, nil
}

func (f *fakeRepo) FindShipment(ctx context.Context, carrierCode, trackingNumber string) (*models.Shipment, error) {
	return f.findShipmentOut, f.findShipmentErr
}

func (f *fakeRepo) SubmitShipment(ctx context.Context, in models.ShipmentUpsert, events []models.TrackingEvent) (*models.Shipment, error) {
	f.submitIn = in
	f.submitEvents = events
	if f.submitOut != nil || f.submitErr != nil {
		return f.submitOut, f.submitErr
	}
	return &models.Shipment{
		ID:                1,
		CarrierID:         in.CarrierID,
		TrackingNumber:    in.TrackingNumber,
		CurrentStatus:     in.CurrentStatus,
		EstimatedDelivery: in.EstimatedDelivery,
		Sender:            in.Sender,
		Recipient:         in.Recipient,
	}, nil
}

func (f *fakeRepo) ListEvents(ctx context.Context, shipmentID uint64) ([]models.TrackingEvent, error) {
	return f.listOut, f.listErr
}

type fakeCache struct {
	m map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok := c.m[key]
	return b, ok, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.m[key] = value
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.m, key)
	return nil
}

func TestService_Lookup_validate(t *testing.T) {
	s := New(&fakeRepo{}, nil, 0)

	_, err := s.Lookup(context.Background(), "", "123")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = s.Lookup(context.Background(), "   ", "123")
	require.ErrorAs(t, err, &ve)

	_, err = s.Lookup(context.Background(), "lotte", "")
	require.ErrorAs(t, err, &ve)
}

func TestService_Lookup_carrierNotFound(t *testing.T) {
	s := New(&fakeRepo{carriers: map[string]*models.Carrier{}}, nil, 0)

	_, err := s.Lookup(context.Background(), "nope", "123")
	require.ErrorIs(t, err, models.ErrCarrierNotFound)
}

func TestService_Lookup_shipmentNotFound(t *testing.T) {
	r := &fakeRepo{
		carriers:        map[string]*models.Carrier{"lotte": {ID: 2, Code: "lotte", Name: "롯데택배"}},
		findShipmentErr: models.ErrShipmentNotFound,
	}
	s := New(r, nil, 0)

	_, err := s.Lookup(context.Background(), "lotte", "000")
	require.ErrorIs(t, err, models.ErrShipmentNotFound)
}

func TestService_Lookup_success(t *testing.T) {
	eta := "2026-09-01T12:00:00Z"
	r := &fakeRepo{
		carriers: map[string]*models.Carrier{"lotte": {ID: 2, Code: "lotte", Name: "롯데택배"}},
		findShipmentOut: &models.Shipment{
			ID:                7,
			CarrierID:         2,
			TrackingNumber:    "876543210987",
			CurrentStatus:     models.StatusInTransit,
			EstimatedDelivery: &eta,
		},
		listOut: []models.TrackingEvent{
			{Time: "2026-08-29T10:00:00Z", Location: "대구", Status: models.StatusReceived},
			{Time: "2026-08-31T10:00:00Z", Location: "인천 연수구", Status: models.StatusInTransit},
		},
	}
	s := New(r, nil, 0)

	info, err := s.Lookup(context.Background(), "lotte", "876543210987")
	require.NoError(t, err)
	require.Equal(t, "lotte", info.Carrier)
	require.Equal(t, "롯데택배", info.CarrierName)
	require.Equal(t, models.StatusInTransit, info.CurrentStatus)
	require.Equal(t, eta, info.EstimatedDelivery)
	require.Len(t, info.History, 2)
	require.Empty(t, info.Sender)
}

func TestService_Lookup_cacheHit(t *testing.T) {
	r := &fakeRepo{carriers: map[string]*models.Carrier{}}
	c := &fakeCache{m: map[string][]byte{}}
	s := New(r, c, 10*time.Minute)

	want := &models.TrackingInfo{Carrier: "lotte", TrackingNumber: "876543210987", CurrentStatus: models.StatusInTransit}
	b, _ := json.Marshal(want)
	c.m["tracking:lotte:876543210987:current"] = b

	// Репозиторий пуст: ответ может прийти только из кэша.
	info, err := s.Lookup(context.Background(), "lotte", "876543210987")
	require.NoError(t, err)
	require.Equal(t, models.StatusInTransit, info.CurrentStatus)
}

func TestService_Submit_validate(t *testing.T) {
	s := New(&fakeRepo{}, nil, 0)
	var ve *ValidationError

	_, err := s.Submit(context.Background(), models.SubmitRequest{TrackingNumber: "1"})
	require.ErrorAs(t, err, &ve)

	_, err = s.Submit(context.Background(), models.SubmitRequest{Carrier: "lotte"})
	require.ErrorAs(t, err, &ve)
}

func TestService_Submit_rejectsUnknownStatus(t *testing.T) {
	s := New(&fakeRepo{}, nil, 0)

	_, err := s.Submit(context.Background(), models.SubmitRequest{
		Carrier:        "lotte",
		TrackingNumber: "1",
		History: []models.TrackingEvent{
			{Time: "2026-08-30T10:00:00Z", Location: "대구", Status: "lost-in-space"},
		},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestService_Submit_statusFromLastHistoryEntry(t *testing.T) {
	r := &fakeRepo{carriers: map[string]*models.Carrier{}}
	s := New(r, nil, 0)

	info, err := s.Submit(context.Background(), models.SubmitRequest{
		Carrier:        "lotte",
		TrackingNumber: "876543210987",
		History: []models.TrackingEvent{
			{Time: "2026-08-29T10:00:00Z", Location: "대구", Status: models.StatusReceived},
			{Time: "2026-08-31T10:00:00Z", Location: "인천 연수구", Status: models.StatusInTransit},
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusInTransit, r.submitIn.CurrentStatus)
	require.Equal(t, models.StatusInTransit, info.CurrentStatus)
	require.Len(t, r.submitEvents, 2)
}

func TestService_Submit_defaultStatusWithoutHistory(t *testing.T) {
	r := &fakeRepo{carriers: map[string]*models.Carrier{}}
	s := New(r, nil, 0)

	_, err := s.Submit(context.Background(), models.SubmitRequest{
		Carrier:        "lotte",
		TrackingNumber: "876543210987",
		Sender:         "대전 물류센터",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusReceived, r.submitIn.CurrentStatus)
	require.Empty(t, r.submitEvents)
	require.NotNil(t, r.submitIn.Sender)
	require.Equal(t, "대전 물류센터", *r.submitIn.Sender)
}

func TestService_Submit_carrierNames(t *testing.T) {
	r := &fakeRepo{carriers: map[string]*models.Carrier{}}
	s := New(r, nil, 0)

	_, err := s.Submit(context.Background(), models.SubmitRequest{Carrier: "lotte", TrackingNumber: "1"})
	require.NoError(t, err)
	require.Equal(t, "롯데택배", r.createdName)

	// Неизвестный код получает имя, равное самому коду.
	_, err = s.Submit(context.Background(), models.SubmitRequest{Carrier: "acme-express", TrackingNumber: "2"})
	require.NoError(t, err)
	require.Equal(t, "acme-express", r.createdName)
}

func TestService_Submit_primesSnapshot(t *testing.T) {
	r := &fakeRepo{carriers: map[string]*models.Carrier{}}
	c := &fakeCache{m: map[string][]byte{}}
	s := New(r, c, 10*time.Minute)

	_, err := s.Submit(context.Background(), models.SubmitRequest{
		Carrier:        "lotte",
		TrackingNumber: "876543210987",
		History: []models.TrackingEvent{
			{Time: "2026-08-31T10:00:00Z", Location: "인천 연수구", Status: models.StatusInTransit},
		},
	})
	require.NoError(t, err)

	b, ok := c.m["tracking:lotte:876543210987:current"]
	require.True(t, ok)
	var cached models.TrackingInfo
	require.NoError(t, json.Unmarshal(b, &cached))
	require.Equal(t, models.StatusInTransit, cached.CurrentStatus)
}

func TestService_Submit_trimsInput(t *testing.T) {
	r := &fakeRepo{carriers: map[string]*models.Carrier{}}
	s := New(r, nil, 0)

	info, err := s.Submit(context.Background(), models.SubmitRequest{
		Carrier:        " lotte ",
		TrackingNumber: " 876543210987 ",
	})
	require.NoError(t, err)

	// Код перевозчика и трек-номер сохраняются без пробелов,
	// иначе Lookup по очищенным значениям их не найдёт.
	require.Equal(t, "lotte", r.createdCode)
	require.Equal(t, "롯데택배", r.createdName)
	require.Equal(t, "876543210987", r.submitIn.TrackingNumber)
	require.Equal(t, "lotte", info.Carrier)
}
