// Package intake реализует синхронный путь приёма заказа: создание заказа
// и запись OrderCreated в outbox одной транзакцией, а также запросы статуса.
package intake

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
	"github.com/vladislavdragonenkov/ofs/internal/events"
	"github.com/vladislavdragonenkov/ofs/internal/outbox"
)

const aggregateType = "order"

// TimelineEventOrderCreated — первая запись в истории каждого заказа.
const TimelineEventOrderCreated = "OrderCreated"

// ErrValidation агрегирует ошибки валидации входного запроса.
var ErrValidation = errors.New("invalid order request")

// Service — application-слой сервиса заказов.
type Service struct {
	store  domain.OrderStore
	logger *log.Entry
}

// NewService создаёт intake-сервис.
func NewService(store domain.OrderStore, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "intake-service")
	}
	return &Service{store: store, logger: logger}
}

// CreateOrder создаёт заказ в статусе pending и атомарно записывает
// OrderCreated в outbox. Дальше заказ двигает только сага.
func (s *Service) CreateOrder(ctx context.Context, productID string, qty int32, priceMinor int64) (domain.Order, error) {
	order := domain.NewOrder(productID, qty, priceMinor)
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errors.Join(append([]error{ErrValidation}, errs...)...)
	}

	err := s.store.WithinTx(ctx, func(tx domain.OrderTx) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		created := events.NewOrderCreated(order.ID, order.ProductID, order.Qty, order.PriceMinor)
		if err := outbox.Append(ctx, tx, aggregateType, order.ID, events.TypeOrderCreated, created); err != nil {
			return err
		}

		event := domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     TimelineEventOrderCreated,
			Occurred: order.CreatedAt,
		}
		if err := tx.AppendTimeline(ctx, event); err != nil {
			return fmt.Errorf("append timeline event: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"product_id":  order.ProductID,
		"qty":         order.Qty,
		"price_minor": order.PriceMinor,
	}).Info("order accepted")
	return order, nil
}

// GetOrder возвращает текущее состояние заказа.
func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// Timeline возвращает историю жизненного цикла заказа.
func (s *Service) Timeline(ctx context.Context, orderID string) ([]domain.TimelineEvent, error) {
	return s.store.ListTimeline(ctx, orderID)
}
