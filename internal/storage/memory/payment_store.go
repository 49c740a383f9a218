package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
)

// PaymentStore — in-memory хранилище платёжного сервиса.
type PaymentStore struct {
	mu       sync.Mutex
	payments map[string]domain.Payment
	outbox   outboxState
}

// NewPaymentStore создаёт пустое in-memory хранилище платежей.
func NewPaymentStore() *PaymentStore {
	return &PaymentStore{
		payments: make(map[string]domain.Payment),
		outbox:   newOutboxState(),
	}
}

// Payment возвращает платёж по заказу (используется в тестах).
func (s *PaymentStore) Payment(orderID string) (domain.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[orderID]
	return payment, ok
}

// WithinTx выполняет fn атомарно относительно других вызовов стора.
func (s *PaymentStore) WithinTx(_ context.Context, fn func(tx domain.PaymentTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paymentsSnap := make(map[string]domain.Payment, len(s.payments))
	for id, payment := range s.payments {
		paymentsSnap[id] = payment
	}
	outboxSnap := s.outbox.snapshot()

	if err := fn(&paymentTx{store: s}); err != nil {
		s.payments = paymentsSnap
		s.outbox.restore(outboxSnap)
		return err
	}
	return nil
}

// WithinOutboxTx выполняет fn над outbox-записями атомарно.
func (s *PaymentStore) WithinOutboxTx(_ context.Context, fn func(tx domain.OutboxTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.outbox.snapshot()
	if err := fn(&memoryOutboxTx{state: &s.outbox}); err != nil {
		s.outbox.restore(snap)
		return err
	}
	return nil
}

// OutboxStats возвращает размер backlog неопубликованных событий.
func (s *PaymentStore) OutboxStats(_ context.Context) (domain.OutboxStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outbox.stats(), nil
}

// paymentTx пишет напрямую в стор; мьютекс уже удерживается WithinTx.
type paymentTx struct {
	store *PaymentStore
}

func (t *paymentTx) GetPayment(_ context.Context, orderID string) (domain.Payment, error) {
	payment, ok := t.store.payments[orderID]
	if !ok {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return payment, nil
}

func (t *paymentTx) CreatePayment(_ context.Context, payment domain.Payment) error {
	if _, exists := t.store.payments[payment.OrderID]; exists {
		return domain.ErrPaymentExists
	}
	t.store.payments[payment.OrderID] = payment
	return nil
}

func (t *paymentTx) AppendOutbox(_ context.Context, msg domain.OutboxMessage) error {
	return t.store.outbox.append(msg)
}

var (
	_ domain.PaymentStore = (*PaymentStore)(nil)
	_ domain.OutboxStore  = (*PaymentStore)(nil)
	_ domain.PaymentTx    = (*paymentTx)(nil)
)
