package memory

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
)

// outboxState — общая in-memory часть стораджей: записи transactional outbox
// каждого сервиса. Доступ синхронизируется мьютексом владеющего стораджа.
type outboxState struct {
	records map[string]domain.OutboxMessage
}

func newOutboxState() outboxState {
	return outboxState{records: make(map[string]domain.OutboxMessage)}
}

func (s *outboxState) snapshot() map[string]domain.OutboxMessage {
	copied := make(map[string]domain.OutboxMessage, len(s.records))
	for id, msg := range s.records {
		copied[id] = msg
	}
	return copied
}

func (s *outboxState) restore(snap map[string]domain.OutboxMessage) {
	s.records = snap
}

func (s *outboxState) append(msg domain.OutboxMessage) error {
	if msg.ID == "" {
		return domain.ErrOutboxPublish
	}
	if _, exists := s.records[msg.ID]; exists {
		return domain.ErrOutboxPublish
	}
	s.records[msg.ID] = msg
	return nil
}

func (s *outboxState) pullUnprocessed(limit int) []domain.OutboxMessage {
	if limit <= 0 {
		limit = 100
	}

	result := make([]domain.OutboxMessage, 0, limit)
	for _, msg := range s.records {
		if msg.Processed() {
			continue
		}
		result = append(result, msg)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].OccurredAt.Equal(result[j].OccurredAt) {
			return result[i].OccurredAt.Before(result[j].OccurredAt)
		}
		return result[i].ID < result[j].ID
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

func (s *outboxState) markProcessed(id string, at time.Time) error {
	msg, ok := s.records[id]
	if !ok {
		return domain.ErrOutboxPublish
	}
	msg.ProcessedAt = at
	s.records[id] = msg
	return nil
}

func (s *outboxState) stats() domain.OutboxStats {
	var stats domain.OutboxStats
	for _, msg := range s.records {
		if msg.Processed() {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || msg.OccurredAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = msg.OccurredAt
		}
	}
	return stats
}
