package domain_test

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
)

// helper для создания базового заказа в статусе pending.
func makeOrder() domain.Order {
	return domain.NewOrder("product-1", 2, 500)
}

func TestNewOrder(t *testing.T) {
	order := makeOrder()

	if order.ID == "" {
		t.Fatal("expected generated order id")
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.CreatedAt.IsZero() || order.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
		want error
	}{
		{
			name: "no product",
			mut: func(o *domain.Order) {
				o.ProductID = ""
			},
			want: domain.ErrProductRequired,
		},
		{
			name: "qty invalid",
			mut: func(o *domain.Order) {
				o.Qty = 0
			},
			want: domain.ErrQtyInvalid,
		},
		{
			name: "negative price",
			mut: func(o *domain.Order) {
				o.PriceMinor = -1
			},
			want: domain.ErrPriceNegative,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)

			errs := order.ValidateInvariants()
			if len(errs) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
			found := false
			for _, err := range errs {
				if errors.Is(err, tc.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %v among validation errors, got %v", tc.want, errs)
			}
		})
	}
}

func TestOrderTransitions_HappyPath(t *testing.T) {
	order := makeOrder()

	if err := order.MarkReserved(); err != nil {
		t.Fatalf("pending -> reserved failed: %v", err)
	}
	if err := order.MarkPaid(); err != nil {
		t.Fatalf("reserved -> paid failed: %v", err)
	}
	if err := order.Complete(); err != nil {
		t.Fatalf("paid -> completed failed: %v", err)
	}
	if !order.IsTerminal() {
		t.Fatal("completed order must be terminal")
	}
}

func TestOrderTransitions_Guarded(t *testing.T) {
	cases := []struct {
		name string
		prep func(o *domain.Order)
		op   func(o *domain.Order) error
	}{
		{
			name: "paid from pending",
			prep: func(*domain.Order) {},
			op:   func(o *domain.Order) error { return o.MarkPaid() },
		},
		{
			name: "completed from reserved",
			prep: func(o *domain.Order) {
				if err := o.MarkReserved(); err != nil {
					panic(err)
				}
			},
			op: func(o *domain.Order) error { return o.Complete() },
		},
		{
			name: "reserved twice",
			prep: func(o *domain.Order) {
				if err := o.MarkReserved(); err != nil {
					panic(err)
				}
			},
			op: func(o *domain.Order) error { return o.MarkReserved() },
		},
		{
			name: "cancel after completion",
			prep: func(o *domain.Order) {
				o.Status = domain.OrderStatusCompleted
			},
			op: func(o *domain.Order) error { return o.Cancel() },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.prep(&order)

			if err := tc.op(&order); !errors.Is(err, domain.ErrOrderStateConflict) {
				t.Fatalf("expected ErrOrderStateConflict, got %v", err)
			}
		})
	}
}

func TestOrderReached(t *testing.T) {
	cases := []struct {
		name   string
		status domain.OrderStatus
		target domain.OrderStatus
		want   bool
	}{
		{"pending before reserved", domain.OrderStatusPending, domain.OrderStatusReserved, false},
		{"pending before paid", domain.OrderStatusPending, domain.OrderStatusPaid, false},
		{"reserved at reserved", domain.OrderStatusReserved, domain.OrderStatusReserved, true},
		{"paid past reserved", domain.OrderStatusPaid, domain.OrderStatusReserved, true},
		{"completed past paid", domain.OrderStatusCompleted, domain.OrderStatusPaid, true},
		{"cancelled not on path", domain.OrderStatusCancelled, domain.OrderStatusPaid, false},
		{"cancelled at cancelled", domain.OrderStatusCancelled, domain.OrderStatusCancelled, true},
		{"paid not cancelled", domain.OrderStatusPaid, domain.OrderStatusCancelled, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			order.Status = tc.status
			if got := order.Reached(tc.target); got != tc.want {
				t.Fatalf("Reached(%s) from %s: got %v, want %v", tc.target, tc.status, got, tc.want)
			}
		})
	}
}

func TestOrderCancel(t *testing.T) {
	statuses := []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusReserved,
		domain.OrderStatusPaid,
	}

	for _, status := range statuses {
		order := makeOrder()
		order.Status = status
		if err := order.Cancel(); err != nil {
			t.Fatalf("cancel from %s failed: %v", status, err)
		}
		if order.Status != domain.OrderStatusCancelled {
			t.Fatalf("expected cancelled, got %s", order.Status)
		}
		if !order.IsTerminal() {
			t.Fatal("cancelled order must be terminal")
		}
	}
}
