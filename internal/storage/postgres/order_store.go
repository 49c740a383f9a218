package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
)

// OrderStore — PostgreSQL-реализация хранилища сервиса заказов.
type OrderStore struct {
	store *Store
}

// NewOrderStore создаёт PostgreSQL-реализацию OrderStore.
func NewOrderStore(store *Store) *OrderStore {
	return &OrderStore{store: store}
}

// WithinTx выполняет fn в одной SQL-транзакции; outbox-записи фиксируются
// вместе с доменной мутацией.
func (s *OrderStore) WithinTx(ctx context.Context, fn func(tx domain.OrderTx) error) error {
	return s.store.withinTx(ctx, func(tx *sql.Tx) error {
		return fn(&orderSQLTx{tx: tx})
	})
}

// GetOrder возвращает заказ вне транзакции.
func (s *OrderStore) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return scanOrder(s.store.db.QueryRowContext(queryCtx, `
		SELECT id, product_id, qty, price_minor, status, version, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id))
}

// ListTimeline возвращает события жизненного цикла заказа в порядке добавления.
func (s *OrderStore) ListTimeline(ctx context.Context, orderID string) ([]domain.TimelineEvent, error) {
	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(queryCtx, `
		SELECT order_id, type, reason, occurred
		FROM order_timeline
		WHERE order_id = $1
		ORDER BY occurred ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list timeline events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.TimelineEvent, 0)
	for rows.Next() {
		var event domain.TimelineEvent
		if err := rows.Scan(&event.OrderID, &event.Type, &event.Reason, &event.Occurred); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline events: %w", err)
	}

	return events, nil
}

// WithinOutboxTx и OutboxStats делегируются общему стору.
func (s *OrderStore) WithinOutboxTx(ctx context.Context, fn func(tx domain.OutboxTx) error) error {
	return s.store.WithinOutboxTx(ctx, fn)
}

func (s *OrderStore) OutboxStats(ctx context.Context) (domain.OutboxStats, error) {
	return s.store.OutboxStats(ctx)
}

type orderSQLTx struct {
	tx *sql.Tx
}

func (t *orderSQLTx) CreateOrder(ctx context.Context, order domain.Order) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, product_id, qty, price_minor, status, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		order.ID, order.ProductID, order.Qty, order.PriceMinor,
		string(order.Status), order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *orderSQLTx) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return scanOrder(t.tx.QueryRowContext(ctx, `
		SELECT id, product_id, qty, price_minor, status, version, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, id))
}

func (t *orderSQLTx) SaveOrder(ctx context.Context, order domain.Order) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		  AND version = $4
	`,
		string(order.Status), order.UpdatedAt, order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := t.orderExists(ctx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}
	return nil
}

func (t *orderSQLTx) AppendTimeline(ctx context.Context, event domain.TimelineEvent) error {
	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}

	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_timeline (order_id, type, reason, occurred)
		VALUES ($1,$2,$3,$4)
	`, event.OrderID, event.Type, event.Reason, event.Occurred); err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}
	return nil
}

func (t *orderSQLTx) AppendOutbox(ctx context.Context, msg domain.OutboxMessage) error {
	return appendOutbox(ctx, t.tx, msg)
}

func (t *orderSQLTx) orderExists(ctx context.Context, orderID string) (bool, error) {
	var id string
	err := t.tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

func scanOrder(row *sql.Row) (domain.Order, error) {
	var (
		order  domain.Order
		status string
	)
	err := row.Scan(
		&order.ID, &order.ProductID, &order.Qty, &order.PriceMinor,
		&status, &order.Version, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	return order, nil
}

var (
	_ domain.OrderStore  = (*OrderStore)(nil)
	_ domain.OutboxStore = (*OrderStore)(nil)
	_ domain.OrderTx     = (*orderSQLTx)(nil)
)
