package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
)

// OrderStore — in-memory хранилище сервиса заказов для локальной разработки
// и тестов. Транзакционность моделируется снимком состояния: ошибка из fn
// возвращает все карты к состоянию до вызова.
type OrderStore struct {
	mu       sync.Mutex
	orders   map[string]domain.Order
	timeline map[string][]domain.TimelineEvent
	outbox   outboxState
}

// NewOrderStore создаёт пустое in-memory хранилище заказов.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:   make(map[string]domain.Order),
		timeline: make(map[string][]domain.TimelineEvent),
		outbox:   newOutboxState(),
	}
}

// WithinTx выполняет fn атомарно относительно других вызовов стора.
func (s *OrderStore) WithinTx(_ context.Context, fn func(tx domain.OrderTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordersSnap := make(map[string]domain.Order, len(s.orders))
	for id, order := range s.orders {
		ordersSnap[id] = order
	}
	timelineSnap := make(map[string][]domain.TimelineEvent, len(s.timeline))
	for id, events := range s.timeline {
		timelineSnap[id] = append([]domain.TimelineEvent(nil), events...)
	}
	outboxSnap := s.outbox.snapshot()

	if err := fn(&orderTx{store: s}); err != nil {
		s.orders = ordersSnap
		s.timeline = timelineSnap
		s.outbox.restore(outboxSnap)
		return err
	}
	return nil
}

// GetOrder возвращает заказ вне транзакции.
func (s *OrderStore) GetOrder(_ context.Context, id string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrder(id)
}

// ListTimeline возвращает события жизненного цикла заказа в порядке добавления.
func (s *OrderStore) ListTimeline(_ context.Context, orderID string) ([]domain.TimelineEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[orderID]; !ok {
		return nil, domain.ErrOrderNotFound
	}
	return append([]domain.TimelineEvent(nil), s.timeline[orderID]...), nil
}

// WithinOutboxTx выполняет fn над outbox-записями атомарно.
func (s *OrderStore) WithinOutboxTx(_ context.Context, fn func(tx domain.OutboxTx) error) error {
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
func (s *OrderStore) OutboxStats(_ context.Context) (domain.OutboxStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outbox.stats(), nil
}

func (s *OrderStore) getOrder(id string) (domain.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// orderTx пишет напрямую в стор; мьютекс уже удерживается WithinTx.
type orderTx struct {
	store *OrderStore
}

func (t *orderTx) CreateOrder(_ context.Context, order domain.Order) error {
	if _, exists := t.store.orders[order.ID]; exists {
		return domain.ErrOrderVersionConflict
	}
	t.store.orders[order.ID] = order
	return nil
}

func (t *orderTx) GetOrder(_ context.Context, id string) (domain.Order, error) {
	return t.store.getOrder(id)
}

func (t *orderTx) SaveOrder(_ context.Context, order domain.Order) error {
	current, ok := t.store.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	order.Version++
	t.store.orders[order.ID] = order
	return nil
}

func (t *orderTx) AppendTimeline(_ context.Context, event domain.TimelineEvent) error {
	t.store.timeline[event.OrderID] = append(t.store.timeline[event.OrderID], event)
	return nil
}

func (t *orderTx) AppendOutbox(_ context.Context, msg domain.OutboxMessage) error {
	return t.store.outbox.append(msg)
}

// memoryOutboxTx — общий для всех in-memory стораджей взгляд relay на outbox.
type memoryOutboxTx struct {
	state *outboxState
}

func (t *memoryOutboxTx) PullUnprocessed(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	return t.state.pullUnprocessed(limit), nil
}

func (t *memoryOutboxTx) MarkProcessed(_ context.Context, id string, at time.Time) error {
	return t.state.markProcessed(id, at)
}

var (
	_ domain.OrderStore  = (*OrderStore)(nil)
	_ domain.OutboxStore = (*OrderStore)(nil)
	_ domain.OrderTx     = (*orderTx)(nil)
	_ domain.OutboxTx    = (*memoryOutboxTx)(nil)
)
