package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vladislavdragonenkov/ofs/internal/service/httpapi"
	"github.com/vladislavdragonenkov/ofs/internal/service/intake"
	"github.com/vladislavdragonenkov/ofs/internal/storage/memory"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := memory.NewOrderStore()
	svc := intake.NewService(store, nil)
	handler := httpapi.NewHandler(svc, memory.NewIdempotencyRepository(), nil)
	return handler.Router()
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/orders", `{"product_id":"product-1","quantity":2,"price_minor":500}`, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OrderID == "" || resp.Status != "pending" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// Статус заказа доступен сразу после приёма.
	getRec := doRequest(t, router, http.MethodGet, "/orders/"+resp.OrderID, "", nil)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", getRec.Code)
	}

	var order struct {
		OrderID    string `json:"order_id"`
		Status     string `json:"status"`
		ProductID  string `json:"product_id"`
		Quantity   int32  `json:"quantity"`
		PriceMinor int64  `json:"price_minor"`
	}
	if err := json.Unmarshal(getRec.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.ProductID != "product-1" || order.Quantity != 2 || order.PriceMinor != 500 {
		t.Fatalf("unexpected order: %+v", order)
	}

	eventsRec := doRequest(t, router, http.MethodGet, "/orders/"+resp.OrderID+"/events", "", nil)
	if eventsRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for events, got %d", eventsRec.Code)
	}
	var events []struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(eventsRec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 || events[0].Type != intake.TimelineEventOrderCreated {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestCreateOrderEndpoint_BadRequests(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"broken json", `{"product_id":`},
		{"missing product", `{"quantity":1,"price_minor":100}`},
		{"zero qty", `{"product_id":"product-1","quantity":0,"price_minor":100}`},
		{"negative price", `{"product_id":"product-1","quantity":1,"price_minor":-5}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/orders", tc.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetOrderEndpoint_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/orders/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodGet, "/orders/missing/events", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for events, got %d", rec.Code)
	}
}

func TestCreateOrderEndpoint_Idempotency(t *testing.T) {
	router := newTestRouter(t)
	body := `{"product_id":"product-1","quantity":2,"price_minor":500}`
	headers := map[string]string{"Idempotency-Key": "idem-1"}

	first := doRequest(t, router, http.MethodPost, "/orders", body, headers)
	if first.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", first.Code, first.Body.String())
	}

	// Повтор с тем же ключом и телом воспроизводит сохранённый ответ.
	second := doRequest(t, router, http.MethodPost, "/orders", body, headers)
	if second.Code != http.StatusAccepted {
		t.Fatalf("expected replayed 202, got %d", second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay must return identical body:\nfirst:  %s\nsecond: %s", first.Body.String(), second.Body.String())
	}

	// Тот же ключ с другим телом отклоняется.
	mismatch := doRequest(t, router, http.MethodPost, "/orders", `{"product_id":"product-2","quantity":1,"price_minor":100}`, headers)
	if mismatch.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for body mismatch, got %d", mismatch.Code)
	}
}

func TestCreateOrderEndpoint_IdempotencyReplaysFailure(t *testing.T) {
	router := newTestRouter(t)
	body := `{"product_id":"","quantity":1,"price_minor":100}`
	headers := map[string]string{"Idempotency-Key": "idem-fail"}

	first := doRequest(t, router, http.MethodPost, "/orders", body, headers)
	if first.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", first.Code)
	}

	// Ответы об ошибке тоже кэшируются и воспроизводятся.
	second := doRequest(t, router, http.MethodPost, "/orders", body, headers)
	if second.Code != http.StatusBadRequest {
		t.Fatalf("expected replayed 400, got %d", second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatal("failure replay must return identical body")
	}
}

func TestCreateOrderEndpoint_WithoutIdempotencyKey(t *testing.T) {
	router := newTestRouter(t)
	body := `{"product_id":"product-1","quantity":1,"price_minor":100}`

	// Без заголовка каждый запрос создаёт новый заказ.
	first := doRequest(t, router, http.MethodPost, "/orders", body, nil)
	second := doRequest(t, router, http.MethodPost, "/orders", body, nil)
	if first.Code != http.StatusAccepted || second.Code != http.StatusAccepted {
		t.Fatalf("expected two 202 responses, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() == second.Body.String() {
		t.Fatal("requests without idempotency key must create distinct orders")
	}
}
