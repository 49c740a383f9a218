package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
)

// appendOutbox вставляет событие в outbox в рамках открытой транзакции.
func appendOutbox(ctx context.Context, tx *sql.Tx, msg domain.OutboxMessage) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO outbox_messages (
			id, aggregate_type, aggregate_id, event_type, payload, occurred_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload, msg.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append outbox message: %w", err)
	}
	return nil
}

// sqlOutboxTx — взгляд relay на outbox-таблицу в рамках транзакции.
type sqlOutboxTx struct {
	tx *sql.Tx
}

func (t *sqlOutboxTx) PullUnprocessed(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, occurred_at
		FROM outbox_messages
		WHERE processed_at IS NULL
		ORDER BY occurred_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("pull unprocessed outbox messages: %w", err)
	}
	defer rows.Close()

	result := make([]domain.OutboxMessage, 0, limit)
	for rows.Next() {
		var msg domain.OutboxMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.AggregateType,
			&msg.AggregateID,
			&msg.EventType,
			&msg.Payload,
			&msg.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}

	return result, nil
}

func (t *sqlOutboxTx) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE outbox_messages
		SET processed_at = $2
		WHERE id = $1
		  AND processed_at IS NULL
	`, id, at)
	if err != nil {
		return fmt.Errorf("mark outbox message processed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for outbox mark: %w", err)
	}
	if affected == 0 {
		return domain.ErrOutboxPublish
	}
	return nil
}

// WithinOutboxTx выполняет fn над outbox-записями в одной транзакции.
func (s *Store) WithinOutboxTx(ctx context.Context, fn func(tx domain.OutboxTx) error) error {
	return s.withinTx(ctx, func(tx *sql.Tx) error {
		return fn(&sqlOutboxTx{tx: tx})
	})
}

// OutboxStats возвращает размер backlog неопубликованных событий.
func (s *Store) OutboxStats(ctx context.Context) (domain.OutboxStats, error) {
	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		stats  domain.OutboxStats
		oldest sql.NullTime
	)
	if err := s.db.QueryRowContext(queryCtx, `
		SELECT COUNT(*), MIN(occurred_at)
		FROM outbox_messages
		WHERE processed_at IS NULL
	`).Scan(&stats.PendingCount, &oldest); err != nil {
		return domain.OutboxStats{}, fmt.Errorf("outbox stats query failed: %w", err)
	}

	if oldest.Valid {
		stats.OldestPendingAt = oldest.Time.UTC()
	}
	return stats, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var (
	_ domain.OutboxTx    = (*sqlOutboxTx)(nil)
	_ domain.OutboxStore = (*Store)(nil)
)
