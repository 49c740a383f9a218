package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
)

// InventoryStore — PostgreSQL-реализация хранилища сервиса склада.
type InventoryStore struct {
	store *Store
}

// NewInventoryStore создаёт PostgreSQL-реализацию InventoryStore.
func NewInventoryStore(store *Store) *InventoryStore {
	return &InventoryStore{store: store}
}

// WithinTx выполняет fn в одной SQL-транзакции.
func (s *InventoryStore) WithinTx(ctx context.Context, fn func(tx domain.InventoryTx) error) error {
	return s.store.withinTx(ctx, func(tx *sql.Tx) error {
		return fn(&inventorySQLTx{tx: tx})
	})
}

// WithinOutboxTx и OutboxStats делегируются общему стору.
func (s *InventoryStore) WithinOutboxTx(ctx context.Context, fn func(tx domain.OutboxTx) error) error {
	return s.store.WithinOutboxTx(ctx, fn)
}

func (s *InventoryStore) OutboxStats(ctx context.Context) (domain.OutboxStats, error) {
	return s.store.OutboxStats(ctx)
}

type inventorySQLTx struct {
	tx *sql.Tx
}

func (t *inventorySQLTx) GetItem(ctx context.Context, productID string) (domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := t.tx.QueryRowContext(ctx, `
		SELECT product_id, available_qty, updated_at
		FROM inventory_items
		WHERE product_id = $1
		FOR UPDATE
	`, productID).Scan(&item.ProductID, &item.AvailableQty, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.InventoryItem{}, domain.ErrItemNotFound
		}
		return domain.InventoryItem{}, fmt.Errorf("select inventory item: %w", err)
	}
	return item, nil
}

func (t *inventorySQLTx) SaveItem(ctx context.Context, item domain.InventoryItem) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO inventory_items (product_id, available_qty, updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (product_id) DO UPDATE
		SET available_qty = EXCLUDED.available_qty,
		    updated_at = EXCLUDED.updated_at
	`, item.ProductID, item.AvailableQty, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save inventory item: %w", err)
	}
	return nil
}

func (t *inventorySQLTx) GetReservation(ctx context.Context, orderID string) (domain.Reservation, error) {
	var (
		res        domain.Reservation
		status     string
		releasedAt sql.NullTime
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, order_id, product_id, qty, status, created_at, released_at
		FROM reservations
		WHERE order_id = $1
		FOR UPDATE
	`, orderID).Scan(&res.ID, &res.OrderID, &res.ProductID, &res.Qty, &status, &res.CreatedAt, &releasedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("select reservation: %w", err)
	}

	res.Status = domain.ReservationStatus(status)
	if releasedAt.Valid {
		res.ReleasedAt = releasedAt.Time.UTC()
	}
	return res, nil
}

func (t *inventorySQLTx) CreateReservation(ctx context.Context, res domain.Reservation) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO reservations (id, order_id, product_id, qty, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, res.ID, res.OrderID, res.ProductID, res.Qty, string(res.Status), res.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrReservationExists
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (t *inventorySQLTx) SaveReservation(ctx context.Context, res domain.Reservation) error {
	var releasedAt sql.NullTime
	if !res.ReleasedAt.IsZero() {
		releasedAt = sql.NullTime{Time: res.ReleasedAt, Valid: true}
	}

	result, err := t.tx.ExecContext(ctx, `
		UPDATE reservations
		SET status = $1,
		    released_at = $2
		WHERE order_id = $3
	`, string(res.Status), releasedAt, res.OrderID)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (t *inventorySQLTx) AppendOutbox(ctx context.Context, msg domain.OutboxMessage) error {
	return appendOutbox(ctx, t.tx, msg)
}

var (
	_ domain.InventoryStore = (*InventoryStore)(nil)
	_ domain.OutboxStore    = (*InventoryStore)(nil)
	_ domain.InventoryTx    = (*inventorySQLTx)(nil)
)
