// Package payment реализует платёжный сервис: авторизацию списания по
// зарезервированному заказу с идемпотентной защитой от повторной доставки.
package payment

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
	"github.com/vladislavdragonenkov/ofs/internal/events"
	"github.com/vladislavdragonenkov/ofs/internal/outbox"
)

const aggregateType = "payment"

// Service обрабатывает StockReserved и эмитит результат авторизации.
type Service struct {
	store  domain.PaymentStore
	policy AuthorizationPolicy
	logger *log.Entry
}

// NewService создаёт платёжный сервис с заданной политикой авторизации.
func NewService(store domain.PaymentStore, policy AuthorizationPolicy, logger *log.Entry) *Service {
	if policy == nil {
		policy = NewRandomPolicy(0.8)
	}
	if logger == nil {
		logger = log.WithField("component", "payment-service")
	}
	return &Service{store: store, policy: policy, logger: logger}
}

// HandleStockReserved авторизует списание по заказу. Идемпотентность:
// запись Payment по заказу уже существует — повторная доставка, выходим без
// изменений и без нового события. Отказ авторизации — обычный бизнес-исход,
// он фиксируется записью Payment и событием PaymentFailed.
func (s *Service) HandleStockReserved(ctx context.Context, evt events.StockReserved) error {
	return s.store.WithinTx(ctx, func(tx domain.PaymentTx) error {
		if _, err := tx.GetPayment(ctx, evt.OrderID); err == nil {
			s.logger.WithField("order_id", evt.OrderID).Debug("payment already processed, skipping redelivery")
			return nil
		} else if !errors.Is(err, domain.ErrPaymentNotFound) {
			return fmt.Errorf("lookup payment: %w", err)
		}

		decision := s.policy.Authorize(evt.OrderID, evt.AmountMinor)

		payment := domain.NewPayment(evt.OrderID, evt.AmountMinor, decision.Approved, decision.Reason)
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		if decision.Approved {
			succeeded := events.NewPaymentSucceeded(evt.OrderID, evt.AmountMinor)
			if err := outbox.Append(ctx, tx, aggregateType, evt.OrderID, events.TypePaymentSucceeded, succeeded); err != nil {
				return err
			}
			s.logger.WithFields(log.Fields{
				"order_id":     evt.OrderID,
				"amount_minor": evt.AmountMinor,
			}).Info("payment authorized")
			return nil
		}

		failed := events.NewPaymentFailed(evt.OrderID, evt.AmountMinor, decision.Reason)
		if err := outbox.Append(ctx, tx, aggregateType, evt.OrderID, events.TypePaymentFailed, failed); err != nil {
			return err
		}
		s.logger.WithFields(log.Fields{
			"order_id":     evt.OrderID,
			"amount_minor": evt.AmountMinor,
			"reason":       decision.Reason,
		}).Warn("payment declined")
		return nil
	})
}
