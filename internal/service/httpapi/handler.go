package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
	"github.com/vladislavdragonenkov/ofs/internal/service/intake"
)

// Handler реализует HTTP API приёма заказов поверх сервиса intake.
type Handler struct {
	intake   *intake.Service
	idemRepo domain.IdempotencyRepository
	logger   *log.Entry
}

// NewHandler конструирует обработчик с зависимостями. Репозиторий
// идемпотентности опционален: без него заголовок Idempotency-Key игнорируется.
func NewHandler(svc *intake.Service, idemRepo domain.IdempotencyRepository, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "http-api")
	}
	return &Handler{
		intake:   svc,
		idemRepo: idemRepo,
		logger:   logger,
	}
}

// Router собирает маршруты API заказов.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/orders", h.withIdempotency(h.createOrder))
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/events", h.listOrderEvents)
	return r
}

type createOrderRequest struct {
	ProductID  string `json:"product_id"`
	Quantity   int32  `json:"quantity"`
	PriceMinor int64  `json:"price_minor"`
}

type createOrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type orderResponse struct {
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	ProductID  string    `json:"product_id"`
	Quantity   int32     `json:"quantity"`
	PriceMinor int64     `json:"price_minor"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type orderEventResponse struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.intake.CreateOrder(r.Context(), req.ProductID, req.Quantity, req.PriceMinor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, createOrderResponse{
		OrderID: order.ID,
		Status:  string(order.Status),
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.intake.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{
		OrderID:    order.ID,
		Status:     string(order.Status),
		ProductID:  order.ProductID,
		Quantity:   order.Qty,
		PriceMinor: order.PriceMinor,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	})
}

func (h *Handler) listOrderEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.intake.Timeline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]orderEventResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, orderEventResponse{
			Type:     ev.Type,
			Reason:   ev.Reason,
			Occurred: ev.Occurred,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, intake.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, domain.ErrOrderIDRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
