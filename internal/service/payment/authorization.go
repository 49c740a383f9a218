package payment

import (
	"math/rand"
	"sync"
	"time"
)

// Decision — результат авторизации списания.
type Decision struct {
	Approved bool
	Reason   string // Причина отказа; пустая при одобрении.
}

// AuthorizationPolicy принимает решение об авторизации списания.
// Вынесен в интерфейс, чтобы исход был детерминируемым в тестах,
// а в бою подменялся реальным провайдером.
type AuthorizationPolicy interface {
	Authorize(orderID string, amountMinor int64) Decision
}

// ReasonInsufficientFunds — причина отказа reference-политики.
const ReasonInsufficientFunds = "Insufficient funds"

// randomPolicy — reference-политика: одобряет с заданной вероятностью.
type randomPolicy struct {
	mu          sync.Mutex
	rng         *rand.Rand
	successRate float64
}

// NewRandomPolicy создаёт политику со случайным исходом.
// successRate задаётся в диапазоне [0, 1]; reference-значение — 0.8.
func NewRandomPolicy(successRate float64) AuthorizationPolicy {
	if successRate < 0 {
		successRate = 0
	}
	if successRate > 1 {
		successRate = 1
	}
	return &randomPolicy{
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		successRate: successRate,
	}
}

func (p *randomPolicy) Authorize(string, int64) Decision {
	p.mu.Lock()
	approved := p.rng.Float64() < p.successRate
	p.mu.Unlock()

	if approved {
		return Decision{Approved: true}
	}
	return Decision{Reason: ReasonInsufficientFunds}
}

// staticPolicy всегда возвращает один и тот же исход (для тестов и demo).
type staticPolicy struct {
	decision Decision
}

// NewApprovePolicy всегда одобряет списание.
func NewApprovePolicy() AuthorizationPolicy {
	return &staticPolicy{decision: Decision{Approved: true}}
}

// NewDeclinePolicy всегда отклоняет списание с указанной причиной.
func NewDeclinePolicy(reason string) AuthorizationPolicy {
	if reason == "" {
		reason = ReasonInsufficientFunds
	}
	return &staticPolicy{decision: Decision{Reason: reason}}
}

func (p *staticPolicy) Authorize(string, int64) Decision {
	return p.decision
}
