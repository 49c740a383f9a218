// Package inventory реализует складской сервис: резервирование товара под
// заказ и компенсирующее снятие резерва при неудачной оплате.
package inventory

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
	"github.com/vladislavdragonenkov/ofs/internal/events"
	"github.com/vladislavdragonenkov/ofs/internal/outbox"
)

const aggregateType = "inventory"

// ReasonInsufficientStock — причина отказа в StockFailed.
const ReasonInsufficientStock = "Insufficient stock"

// Service обрабатывает интеграционные события склада. Все мутации вместе с
// записью исходящего события выполняются в одной транзакции.
type Service struct {
	store  domain.InventoryStore
	logger *log.Entry
}

// NewService создаёт складской сервис.
func NewService(store domain.InventoryStore, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "inventory-service")
	}
	return &Service{store: store, logger: logger}
}

// HandleOrderCreated резервирует товар под заказ.
// Идемпотентность: существующий резерв по заказу означает повторную
// доставку — выходим, ничего не меняя. Нехватка стока или незаведённая
// позиция — бизнес-отказ: эмитим StockFailed, состояние склада не трогаем.
func (s *Service) HandleOrderCreated(ctx context.Context, evt events.OrderCreated) error {
	return s.store.WithinTx(ctx, func(tx domain.InventoryTx) error {
		if _, err := tx.GetReservation(ctx, evt.OrderID); err == nil {
			s.logger.WithField("order_id", evt.OrderID).Debug("reservation already exists, skipping redelivery")
			return nil
		} else if !errors.Is(err, domain.ErrReservationNotFound) {
			return fmt.Errorf("lookup reservation: %w", err)
		}

		item, err := tx.GetItem(ctx, evt.ProductID)
		if errors.Is(err, domain.ErrItemNotFound) {
			return s.rejectOrder(ctx, tx, evt)
		}
		if err != nil {
			return fmt.Errorf("load inventory item: %w", err)
		}

		if err := item.Reserve(evt.Qty); err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return s.rejectOrder(ctx, tx, evt)
			}
			return err
		}

		if err := tx.SaveItem(ctx, item); err != nil {
			return fmt.Errorf("save inventory item: %w", err)
		}
		if err := tx.CreateReservation(ctx, domain.NewReservation(evt.OrderID, evt.ProductID, evt.Qty)); err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}

		amount := int64(evt.Qty) * evt.PriceMinor
		reserved := events.NewStockReserved(evt.OrderID, evt.ProductID, evt.Qty, amount)
		if err := outbox.Append(ctx, tx, aggregateType, evt.OrderID, events.TypeStockReserved, reserved); err != nil {
			return err
		}

		s.logger.WithFields(log.Fields{
			"order_id":   evt.OrderID,
			"product_id": evt.ProductID,
			"qty":        evt.Qty,
			"left":       item.AvailableQty,
		}).Info("stock reserved")
		return nil
	})
}

func (s *Service) rejectOrder(ctx context.Context, tx domain.InventoryTx, evt events.OrderCreated) error {
	failed := events.NewStockFailed(evt.OrderID, evt.ProductID, evt.Qty, ReasonInsufficientStock)
	if err := outbox.Append(ctx, tx, aggregateType, evt.OrderID, events.TypeStockFailed, failed); err != nil {
		return err
	}

	s.logger.WithFields(log.Fields{
		"order_id":   evt.OrderID,
		"product_id": evt.ProductID,
		"qty":        evt.Qty,
	}).Warn("stock reservation rejected")
	return nil
}

// HandlePaymentFailed — компенсация: возвращает удержанное количество в
// остаток. Повторная доставка безопасна — уже снятый резерв пропускается.
func (s *Service) HandlePaymentFailed(ctx context.Context, evt events.PaymentFailed) error {
	return s.store.WithinTx(ctx, func(tx domain.InventoryTx) error {
		res, err := tx.GetReservation(ctx, evt.OrderID)
		if errors.Is(err, domain.ErrReservationNotFound) {
			// Заказ не дошёл до резервирования — компенсировать нечего.
			return nil
		}
		if err != nil {
			return fmt.Errorf("lookup reservation: %w", err)
		}

		if !res.MarkReleased() {
			s.logger.WithField("order_id", evt.OrderID).Debug("reservation already released, skipping redelivery")
			return nil
		}

		item, err := tx.GetItem(ctx, res.ProductID)
		if err != nil {
			return fmt.Errorf("load inventory item: %w", err)
		}
		item.Release(res.Qty)

		if err := tx.SaveItem(ctx, item); err != nil {
			return fmt.Errorf("save inventory item: %w", err)
		}
		if err := tx.SaveReservation(ctx, res); err != nil {
			return fmt.Errorf("save reservation: %w", err)
		}

		s.logger.WithFields(log.Fields{
			"order_id":   evt.OrderID,
			"product_id": res.ProductID,
			"qty":        res.Qty,
			"available":  item.AvailableQty,
		}).Info("reservation released after payment failure")
		return nil
	})
}
