package models

import "time"

// Статусы отправления — закрытый набор, строки идут в ответ как есть.
const (
	StatusReceived       = "접수"
	StatusCollected      = "집화"
	StatusInTransit      = "이동중"
	StatusHubArrived     = "허브 도착"
	StatusHubDeparted    = "허브 출발"
	StatusOutForDelivery = "배송출발"
	StatusDelivered      = "배송완료"
	StatusOnHold         = "보류"
)

var knownStatuses = map[string]struct{}{
	StatusReceived:       {},
	StatusCollected:      {},
	StatusInTransit:      {},
	StatusHubArrived:     {},
	StatusHubDeparted:    {},
	StatusOutForDelivery: {},
	StatusDelivered:      {},
	StatusOnHold:         {},
}

func IsKnownStatus(s string) bool {
	_, ok := knownStatuses[s]
	return ok
}

// CarrierNames задаёт отображаемые имена известных перевозчиков.
// Неизвестный код сохраняется с именем, равным самому коду.
var CarrierNames = map[string]string{
	"cjlogistics": "CJ대한통운",
	"lotte":       "롯데택배",
	"hanjin":      "한진택배",
}

func CarrierNameFor(code string) string {
	if name, ok := CarrierNames[code]; ok {
		return name
	}
	return code
}

type Carrier struct {
	ID   uint64
	Code string
	Name string
}

type Shipment struct {
	ID                uint64
	CarrierID         uint64
	TrackingNumber    string
	CurrentStatus     string
	EstimatedDelivery *string
	Sender            *string
	Recipient         *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type ShipmentEvent struct {
	ID         uint64
	ShipmentID uint64
	Time       string
	Location   string
	Status     string
	Note       *string
	CreatedAt  time.Time
}

// ShipmentUpsert описывает поля записи для атомарного upsert по
// (carrier_id, tracking_number).
type ShipmentUpsert struct {
	CarrierID         uint64
	TrackingNumber    string
	CurrentStatus     string
	EstimatedDelivery *string
	Sender            *string
	Recipient         *string
}

// TrackingInfo — форма ответа обоих путей API (lookup и submit).
type TrackingInfo struct {
	Carrier           string          `json:"carrier"`
	CarrierName       string          `json:"carrierName"`
	TrackingNumber    string          `json:"trackingNumber"`
	CurrentStatus     string          `json:"currentStatus"`
	EstimatedDelivery string          `json:"estimatedDelivery,omitempty"`
	History           []TrackingEvent `json:"history"`
	Sender            string          `json:"sender,omitempty"`
	Recipient         string          `json:"recipient,omitempty"`
}

type TrackingEvent struct {
	Time     string `json:"time"`
	Location string `json:"location"`
	Status   string `json:"status"`
	Note     string `json:"note,omitempty"`
}

// SubmitRequest — входные данные create-or-update пути.
type SubmitRequest struct {
	Carrier           string
	TrackingNumber    string
	Sender            string
	Recipient         string
	EstimatedDelivery string
	History           []TrackingEvent
}
