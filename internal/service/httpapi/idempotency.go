package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour

	maxRequestBodyBytes = 1 << 20
)

// withIdempotency оборачивает обработчик кэшированием ответа по заголовку
// Idempotency-Key. Запрос без заголовка выполняется напрямую. Повтор с тем же
// ключом и телом воспроизводит сохранённый ответ, повтор с другим телом
// отклоняется.
func (h *Handler) withIdempotency(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.idemRepo == nil {
			next(w, r)
			return
		}

		idemKey := r.Header.Get(idempotencyKeyHeader)
		if idemKey == "" {
			next(w, r)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		reqHash := buildIdempotencyRequestHash(r.Method, r.URL.Path, body)

		record, err := h.idemRepo.CreateProcessing(idemKey, reqHash, time.Now().UTC().Add(idempotencyTTL))
		if err != nil {
			h.replayIdempotency(w, err, record)
			return
		}

		rec := newResponseRecorder(w)
		next(rec, r)

		if rec.status >= http.StatusOK && rec.status < http.StatusBadRequest {
			if cacheErr := h.idemRepo.MarkDone(idemKey, rec.body.Bytes(), rec.status); cacheErr != nil {
				h.logger.WithError(cacheErr).WithField("idempotency_key", idemKey).Warn("failed to store idempotent success response")
			}
			return
		}
		if cacheErr := h.idemRepo.MarkFailed(idemKey, rec.body.Bytes(), rec.status); cacheErr != nil {
			h.logger.WithError(cacheErr).WithField("idempotency_key", idemKey).Warn("failed to store idempotency failure response")
		}
	}
}

func (h *Handler) replayIdempotency(w http.ResponseWriter, createErr error, record domain.IdempotencyRecord) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		writeError(w, http.StatusUnprocessableEntity, "idempotency key is already used with different request payload")
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			replayStoredResponse(w, record)
		case domain.IdempotencyStatusProcessing:
			writeError(w, http.StatusConflict, "request with the same idempotency key is already processing")
		default:
			writeError(w, http.StatusInternalServerError, "unknown idempotency record status")
		}
	default:
		h.logger.WithError(createErr).Warn("failed to create idempotency record")
		writeError(w, http.StatusInternalServerError, "failed to initialize idempotency request")
	}
}

func replayStoredResponse(w http.ResponseWriter, record domain.IdempotencyRecord) {
	status := record.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(record.ResponseBody)
}

func buildIdempotencyRequestHash(method, path string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write([]byte{0})
	sum.Write([]byte(path))
	sum.Write([]byte{0})
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter

	status int
	body   bytes.Buffer
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}
