// Package saga реализует per-order state machine сервиса заказов.
// Координация хореографическая: сага лишь реагирует на события склада и
// платёжного сервиса, продвигая или компенсируя заказ; центрального
// оркестратора нет.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
	"github.com/vladislavdragonenkov/ofs/internal/metrics"
)

// Имена переходов для timeline и метрик.
const (
	TransitionReserved  = "OrderReserved"
	TransitionPaid      = "OrderPaid"
	TransitionCompleted = "OrderCompleted"
	TransitionCancelled = "OrderCancelled"
)

// Saga применяет события к заказу в одной локальной транзакции.
// Переходы защищены статусом заказа. Конфликт перехода трактуется по
// текущему статусу: повторная доставка и события для терминального заказа
// подтверждаются без изменений, а событие, обогнавшее своего
// предшественника, возвращается в harness на повторную доставку, чтобы его
// эффект не потерялся.
type Saga struct {
	store   domain.OrderStore
	logger  *log.Entry
	metrics *metrics.SagaMetrics
}

// NewSaga создаёт сагу с метриками.
func NewSaga(store domain.OrderStore, logger *log.Entry) *Saga {
	if logger == nil {
		logger = log.New().WithField("component", "saga")
	}
	return &Saga{
		store:   store,
		logger:  logger,
		metrics: metrics.NewSagaMetrics(),
	}
}

// NewSagaWithoutMetrics создаёт сагу без метрик (для тестов).
func NewSagaWithoutMetrics(store domain.OrderStore, logger *log.Entry) *Saga {
	if logger == nil {
		logger = log.New().WithField("component", "saga")
	}
	return &Saga{store: store, logger: logger}
}

type transition struct {
	name   string
	target domain.OrderStatus
	fn     func(*domain.Order) error
}

// HandleStockReserved переводит заказ pending → reserved.
func (s *Saga) HandleStockReserved(ctx context.Context, orderID string) error {
	return s.apply(ctx, orderID, "",
		transition{TransitionReserved, domain.OrderStatusReserved, (*domain.Order).MarkReserved})
}

// HandleStockFailed отменяет заказ после отказа склада.
func (s *Saga) HandleStockFailed(ctx context.Context, orderID, reason string) error {
	return s.apply(ctx, orderID, reason,
		transition{TransitionCancelled, domain.OrderStatusCancelled, (*domain.Order).Cancel})
}

// HandlePaymentSucceeded переводит заказ reserved → paid → completed.
// Два перехода выполняются вместе, в одной транзакции.
func (s *Saga) HandlePaymentSucceeded(ctx context.Context, orderID string) error {
	return s.apply(ctx, orderID, "",
		transition{TransitionPaid, domain.OrderStatusPaid, (*domain.Order).MarkPaid},
		transition{TransitionCompleted, domain.OrderStatusCompleted, (*domain.Order).Complete},
	)
}

// HandlePaymentFailed отменяет заказ после отказа оплаты. Компенсирующее
// возвращение резерва выполняет склад, потребляя то же событие.
func (s *Saga) HandlePaymentFailed(ctx context.Context, orderID, reason string) error {
	return s.apply(ctx, orderID, reason,
		transition{TransitionCancelled, domain.OrderStatusCancelled, (*domain.Order).Cancel})
}

func (s *Saga) apply(ctx context.Context, orderID, reason string, steps ...transition) error {
	return s.store.WithinTx(ctx, func(tx domain.OrderTx) error {
		order, err := tx.GetOrder(ctx, orderID)
		if errors.Is(err, domain.ErrOrderNotFound) {
			// Событие для неизвестного заказа ретраями не чинится.
			s.logger.WithField("order_id", orderID).Warn("order not found for saga event, dropping")
			return nil
		}
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}

		for _, step := range steps {
			if err := step.fn(&order); err != nil {
				if domain.IsStateConflict(err) {
					if s.metrics != nil {
						s.metrics.RecordConflict()
					}
					if order.IsTerminal() || order.Reached(step.target) {
						// Повторная доставка либо терминальный заказ:
						// эффект уже учтён, событие подтверждаем.
						s.logger.WithFields(log.Fields{
							"order_id":   orderID,
							"status":     order.Status,
							"transition": step.name,
						}).Debug("transition already applied, ignoring event")
						return nil
					}
					// Событие обогнало своего предшественника: очереди не
					// упорядочены между собой. Возвращаем ошибку, harness
					// доставит сообщение повторно, когда предшественник
					// догонит.
					s.logger.WithFields(log.Fields{
						"order_id":   orderID,
						"status":     order.Status,
						"transition": step.name,
					}).Warn("event arrived ahead of its predecessor, requeueing")
					return fmt.Errorf("apply %s to order in status %s: %w", step.name, order.Status, err)
				}
				return err
			}
		}

		if err := tx.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("save order: %w", err)
		}

		now := time.Now().UTC()
		for _, step := range steps {
			event := domain.TimelineEvent{
				OrderID:  orderID,
				Type:     step.name,
				Reason:   reason,
				Occurred: now,
			}
			if err := tx.AppendTimeline(ctx, event); err != nil {
				return fmt.Errorf("append timeline event: %w", err)
			}
			if s.metrics != nil {
				s.metrics.RecordTransition(step.name)
				s.metrics.RecordTimelineEvent()
			}
		}

		if order.IsTerminal() && s.metrics != nil {
			s.metrics.RecordSagaDuration(time.Since(order.CreatedAt))
		}

		s.logger.WithFields(log.Fields{
			"order_id": orderID,
			"status":   order.Status,
		}).Info("order saga advanced")
		return nil
	})
}
