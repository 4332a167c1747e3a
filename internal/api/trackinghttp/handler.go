package trackinghttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/minsu-dev/parceltrack/internal/models"
	"github.com/minsu-dev/parceltrack/internal/services/tracking"
)

type TrackingService interface {
	Lookup(ctx context.Context, carrierCode, trackingNumber string) (*models.TrackingInfo, error)
	Submit(ctx context.Context, req models.SubmitRequest) (*models.TrackingInfo, error)
}

type SubmitLimiter interface {
	Allow(ctx context.Context, clientKey string) (bool, int64, error)
}

type Handler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      TrackingService
	limiter  SubmitLimiter
}

func New(logger *slog.Logger, svc TrackingService, limiter SubmitLimiter) *Handler {
	return &Handler{
		logger:   logger.With(slog.String("handler", "tracking")),
		validate: validator.New(),
		svc:      svc,
		limiter:  limiter,
	}
}

func (h *Handler) Init(r chi.Router) {
	r.Get("/tracking", h.GetTracking)
	r.Post("/tracking", h.PostTracking)
	r.Get("/healthz", h.Healthz)
}

type errorResponse struct {
	Message string `json:"message"`
}

type submitRequest struct {
	Carrier           string              `json:"carrier" validate:"required"`
	TrackingNumber    string              `json:"trackingNumber" validate:"required"`
	Sender            string              `json:"sender"`
	Recipient         string              `json:"recipient"`
	EstimatedDelivery string              `json:"estimatedDelivery"`
	History           []submitHistoryItem `json:"history" validate:"omitempty,dive"`
}

type submitHistoryItem struct {
	Time     string `json:"time" validate:"required"`
	Location string `json:"location" validate:"required"`
	Status   string `json:"status" validate:"required"`
	Note     string `json:"note"`
}

// GetTracking отвечает текущим состоянием отправления.
func (h *Handler) GetTracking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	carrier := r.URL.Query().Get("carrier")
	trackingNumber := r.URL.Query().Get("trackingNumber")

	info, err := h.svc.Lookup(ctx, carrier, trackingNumber)
	if err != nil {
		h.writeLookupError(ctx, w, err, carrier, trackingNumber)
		return
	}

	writeJSON(w, info, http.StatusOK)
}

// PostTracking создаёт или обновляет отправление.
func (h *Handler) PostTracking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.limiter != nil {
		allowed, _, err := h.limiter.Allow(ctx, clientKey(r))
		if err != nil {
			// Лимитер недоступен — пропускаем запрос, но шумим в лог.
			h.logger.WarnContext(ctx, "rate limiter unavailable", slog.Any("error", err))
		} else if !allowed {
			writeError(w, "too many requests", http.StatusTooManyRequests)
			return
		}
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	history := make([]models.TrackingEvent, 0, len(req.History))
	for _, e := range req.History {
		history = append(history, models.TrackingEvent{
			Time:     e.Time,
			Location: e.Location,
			Status:   e.Status,
			Note:     e.Note,
		})
	}

	info, err := h.svc.Submit(ctx, models.SubmitRequest{
		Carrier:           req.Carrier,
		TrackingNumber:    req.TrackingNumber,
		Sender:            req.Sender,
		Recipient:         req.Recipient,
		EstimatedDelivery: req.EstimatedDelivery,
		History:           history,
	})
	if err != nil {
		var ve *tracking.ValidationError
		if errors.As(err, &ve) {
			writeError(w, ve.Msg, http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "submit failed",
			slog.Any("error", err),
			slog.String("carrier", req.Carrier),
			slog.String("trackingNumber", req.TrackingNumber),
		)
		writeError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, info, http.StatusCreated)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *Handler) writeLookupError(ctx context.Context, w http.ResponseWriter, err error, carrier, trackingNumber string) {
	var ve *tracking.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, ve.Msg, http.StatusBadRequest)
	case errors.Is(err, models.ErrCarrierNotFound):
		writeError(w, "carrier not found", http.StatusNotFound)
	case errors.Is(err, models.ErrShipmentNotFound):
		writeError(w, "not found", http.StatusNotFound)
	default:
		h.logger.ErrorContext(ctx, "lookup failed",
			slog.Any("error", err),
			slog.String("carrier", carrier),
			slog.String("trackingNumber", trackingNumber),
		)
		writeError(w, "internal server error", http.StatusInternalServerError)
	}
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		switch ve[0].Field() {
		case "Carrier":
			return "carrier is required"
		case "TrackingNumber":
			return "tracking number is required"
		}
		return "invalid request"
	}
	return "invalid request"
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, payload any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, errorResponse{Message: message}, code)
}
