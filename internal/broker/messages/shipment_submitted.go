package messages

// ShipmentSubmitted — заявка на создание/обновление отправления,
// пришедшая через Kafka. Форма совпадает с телом POST /tracking.
type ShipmentSubmitted struct {
	Carrier           string           `json:"carrier"`
	TrackingNumber    string           `json:"trackingNumber"`
	Sender            string           `json:"sender,omitempty"`
	Recipient         string           `json:"recipient,omitempty"`
	EstimatedDelivery string           `json:"estimatedDelivery,omitempty"`
	History           []SubmittedEvent `json:"history,omitempty"`
}

type SubmittedEvent struct {
	Time     string `json:"time"`
	Location string `json:"location"`
	Status   string `json:"status"`
	Note     string `json:"note,omitempty"`
}
