// Package notification реализует сервис уведомлений: побочный эффект
// ограничен структурным логом, состояния нет, поэтому повторная доставка
// безвредна.
package notification

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/events"
)

// Service логирует терминальные и компенсирующие события заказа.
type Service struct {
	logger *log.Entry
}

// NewService создаёт сервис уведомлений.
func NewService(logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "notification-service")
	}
	return &Service{logger: logger}
}

// HandlePaymentSucceeded уведомляет об успешной оплате заказа.
func (s *Service) HandlePaymentSucceeded(evt events.PaymentSucceeded) {
	s.logger.WithFields(log.Fields{
		"order_id":     evt.OrderID,
		"amount_minor": evt.AmountMinor,
	}).Info("order paid, notifying customer")
}

// HandlePaymentFailed уведомляет об отклонённой оплате.
func (s *Service) HandlePaymentFailed(evt events.PaymentFailed) {
	s.logger.WithFields(log.Fields{
		"order_id":     evt.OrderID,
		"amount_minor": evt.AmountMinor,
		"reason":       evt.Reason,
	}).Warn("payment failed, notifying customer")
}

// HandleStockFailed уведомляет об отказе резервирования.
func (s *Service) HandleStockFailed(evt events.StockFailed) {
	s.logger.WithFields(log.Fields{
		"order_id":   evt.OrderID,
		"product_id": evt.ProductID,
		"qty":        evt.Qty,
		"reason":     evt.Reason,
	}).Warn("stock reservation failed, notifying customer")
}
