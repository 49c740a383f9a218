package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
)

// InventoryStore — in-memory хранилище сервиса склада.
type InventoryStore struct {
	mu           sync.Mutex
	items        map[string]domain.InventoryItem
	reservations map[string]domain.Reservation
	outbox       outboxState
}

// NewInventoryStore создаёт пустое in-memory хранилище склада.
func NewInventoryStore() *InventoryStore {
	return &InventoryStore{
		items:        make(map[string]domain.InventoryItem),
		reservations: make(map[string]domain.Reservation),
		outbox:       newOutboxState(),
	}
}

// SeedItem записывает стартовый остаток позиции (инициализация и тесты).
func (s *InventoryStore) SeedItem(item domain.InventoryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ProductID] = item
}

// Item возвращает текущий остаток позиции (используется в тестах).
func (s *InventoryStore) Item(productID string) (domain.InventoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[productID]
	return item, ok
}

// WithinTx выполняет fn атомарно относительно других вызовов стора.
func (s *InventoryStore) WithinTx(_ context.Context, fn func(tx domain.InventoryTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemsSnap := make(map[string]domain.InventoryItem, len(s.items))
	for id, item := range s.items {
		itemsSnap[id] = item
	}
	resSnap := make(map[string]domain.Reservation, len(s.reservations))
	for id, res := range s.reservations {
		resSnap[id] = res
	}
	outboxSnap := s.outbox.snapshot()

	if err := fn(&inventoryTx{store: s}); err != nil {
		s.items = itemsSnap
		s.reservations = resSnap
		s.outbox.restore(outboxSnap)
		return err
	}
	return nil
}

// WithinOutboxTx выполняет fn над outbox-записями атомарно.
func (s *InventoryStore) WithinOutboxTx(_ context.Context, fn func(tx domain.OutboxTx) error) error {
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
func (s *InventoryStore) OutboxStats(_ context.Context) (domain.OutboxStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outbox.stats(), nil
}

// inventoryTx пишет напрямую в стор; мьютекс уже удерживается WithinTx.
type inventoryTx struct {
	store *InventoryStore
}

func (t *inventoryTx) GetItem(_ context.Context, productID string) (domain.InventoryItem, error) {
	item, ok := t.store.items[productID]
	if !ok {
		return domain.InventoryItem{}, domain.ErrItemNotFound
	}
	return item, nil
}

func (t *inventoryTx) SaveItem(_ context.Context, item domain.InventoryItem) error {
	t.store.items[item.ProductID] = item
	return nil
}

func (t *inventoryTx) GetReservation(_ context.Context, orderID string) (domain.Reservation, error) {
	res, ok := t.store.reservations[orderID]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return res, nil
}

func (t *inventoryTx) CreateReservation(_ context.Context, res domain.Reservation) error {
	if _, exists := t.store.reservations[res.OrderID]; exists {
		return domain.ErrReservationExists
	}
	t.store.reservations[res.OrderID] = res
	return nil
}

func (t *inventoryTx) SaveReservation(_ context.Context, res domain.Reservation) error {
	if _, ok := t.store.reservations[res.OrderID]; !ok {
		return domain.ErrReservationNotFound
	}
	t.store.reservations[res.OrderID] = res
	return nil
}

func (t *inventoryTx) AppendOutbox(_ context.Context, msg domain.OutboxMessage) error {
	return t.store.outbox.append(msg)
}

var (
	_ domain.InventoryStore = (*InventoryStore)(nil)
	_ domain.OutboxStore    = (*InventoryStore)(nil)
	_ domain.InventoryTx    = (*inventoryTx)(nil)
)
