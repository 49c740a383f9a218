package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
)

// PaymentStore — PostgreSQL-реализация хранилища платёжного сервиса.
type PaymentStore struct {
	store *Store
}

// NewPaymentStore создаёт PostgreSQL-реализацию PaymentStore.
func NewPaymentStore(store *Store) *PaymentStore {
	return &PaymentStore{store: store}
}

// WithinTx выполняет fn в одной SQL-транзакции.
func (s *PaymentStore) WithinTx(ctx context.Context, fn func(tx domain.PaymentTx) error) error {
	return s.store.withinTx(ctx, func(tx *sql.Tx) error {
		return fn(&paymentSQLTx{tx: tx})
	})
}

// WithinOutboxTx и OutboxStats делегируются общему стору.
func (s *PaymentStore) WithinOutboxTx(ctx context.Context, fn func(tx domain.OutboxTx) error) error {
	return s.store.WithinOutboxTx(ctx, fn)
}

func (s *PaymentStore) OutboxStats(ctx context.Context) (domain.OutboxStats, error) {
	return s.store.OutboxStats(ctx)
}

type paymentSQLTx struct {
	tx *sql.Tx
}

func (t *paymentSQLTx) GetPayment(ctx context.Context, orderID string) (domain.Payment, error) {
	var payment domain.Payment
	err := t.tx.QueryRowContext(ctx, `
		SELECT order_id, amount_minor, success, reason, processed_at
		FROM payments
		WHERE order_id = $1
	`, orderID).Scan(&payment.OrderID, &payment.AmountMinor, &payment.Success, &payment.Reason, &payment.ProcessedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Payment{}, domain.ErrPaymentNotFound
		}
		return domain.Payment{}, fmt.Errorf("select payment: %w", err)
	}
	return payment, nil
}

func (t *paymentSQLTx) CreatePayment(ctx context.Context, payment domain.Payment) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO payments (order_id, amount_minor, success, reason, processed_at)
		VALUES ($1,$2,$3,$4,$5)
	`, payment.OrderID, payment.AmountMinor, payment.Success, payment.Reason, payment.ProcessedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrPaymentExists
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (t *paymentSQLTx) AppendOutbox(ctx context.Context, msg domain.OutboxMessage) error {
	return appendOutbox(ctx, t.tx, msg)
}

var (
	_ domain.PaymentStore = (*PaymentStore)(nil)
	_ domain.OutboxStore  = (*PaymentStore)(nil)
	_ domain.PaymentTx    = (*paymentSQLTx)(nil)
)
