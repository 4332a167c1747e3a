package seed

import (
	"context"
	"time"

	"github.com/minsu-dev/parceltrack/internal/models"
	"github.com/pkg/errors"
)

type submitter interface {
	Submit(ctx context.Context, req models.SubmitRequest) (*models.TrackingInfo, error)
}

// Apply загружает демонстрационные отправления. Идемпотентно: повторный
// запуск заменяет историю, а не дописывает её.
func Apply(ctx context.Context, svc submitter) error {
	now := time.Now().UTC()
	at := func(offset time.Duration) string {
		return now.Add(offset).Format(time.RFC3339)
	}

	shipments := []models.SubmitRequest{
		{
			Carrier:           "cjlogistics",
			TrackingNumber:    "123456789012",
			Sender:            "서울 강남물류센터",
			Recipient:         "부산 해운대구 김민수",
			EstimatedDelivery: at(6 * time.Hour),
			History: []models.TrackingEvent{
				{Time: at(-36 * time.Hour), Location: "서울 성동구", Status: models.StatusReceived, Note: "온라인 스토어 접수"},
				{Time: at(-30 * time.Hour), Location: "서울 강남집배점", Status: models.StatusCollected},
				{Time: at(-24 * time.Hour), Location: "수원 허브", Status: models.StatusHubArrived},
				{Time: at(-20 * time.Hour), Location: "수원 허브", Status: models.StatusHubDeparted},
				{Time: at(-2 * time.Hour), Location: "부산 해운대 집배점", Status: models.StatusInTransit},
				{Time: at(-30 * time.Minute), Location: "부산 해운대 집배점", Status: models.StatusOutForDelivery},
			},
		},
		{
			Carrier:        "lotte",
			TrackingNumber: "876543210987",
			Sender:         "대전 물류센터",
			Recipient:      "인천 연수구 박지현",
			History: []models.TrackingEvent{
				{Time: at(-48 * time.Hour), Location: "대구", Status: models.StatusReceived},
				{Time: at(-42 * time.Hour), Location: "대전 허브", Status: models.StatusHubArrived},
				{Time: at(-38 * time.Hour), Location: "대전 허브", Status: models.StatusHubDeparted},
				{Time: at(-1 * time.Hour), Location: "인천 연수구", Status: models.StatusInTransit},
			},
		},
		{
			Carrier:           "hanjin",
			TrackingNumber:    "110022003300",
			Sender:            "광주 북구",
			Recipient:         "서울 마포구 최유진",
			EstimatedDelivery: at(-2 * time.Hour),
			History: []models.TrackingEvent{
				{Time: at(-52 * time.Hour), Location: "광주 북구", Status: models.StatusReceived},
				{Time: at(-46 * time.Hour), Location: "광주 허브", Status: models.StatusCollected},
				{Time: at(-40 * time.Hour), Location: "천안 허브", Status: models.StatusHubArrived},
				{Time: at(-28 * time.Hour), Location: "천안 허브", Status: models.StatusHubDeparted},
				{Time: at(-8 * time.Hour), Location: "서울 마포구", Status: models.StatusOutForDelivery},
				{Time: at(-3 * time.Hour), Location: "서울 마포구", Status: models.StatusDelivered},
			},
		},
	}

	for _, req := range shipments {
		if _, err := svc.Submit(ctx, req); err != nil {
			return errors.Wrapf(err, "seed shipment %s/%s", req.Carrier, req.TrackingNumber)
		}
	}
	return nil
}
