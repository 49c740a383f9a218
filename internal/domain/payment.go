package domain

import "time"

// Payment описывает результат авторизации списания по заказу.
// На один заказ существует не более одной записи: её наличие и есть
// идемпотентный guard против повторной доставки StockReserved.
type Payment struct {
	OrderID     string
	AmountMinor int64
	Success     bool
	Reason      string // Причина отказа; пустая для успешного платежа.
	ProcessedAt time.Time
}

// NewPayment фиксирует результат авторизации.
func NewPayment(orderID string, amountMinor int64, success bool, reason string) Payment {
	return Payment{
		OrderID:     orderID,
		AmountMinor: amountMinor,
		Success:     success,
		Reason:      reason,
		ProcessedAt: time.Now().UTC(),
	}
}

// Validate проверяет корректность полей платежа и возвращает ошибки, если они есть.
func (p *Payment) Validate() []error {
	var errs []error

	if p.OrderID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if p.AmountMinor < 0 {
		errs = append(errs, ErrPriceNegative)
	}

	return errs
}
