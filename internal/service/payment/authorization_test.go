package payment

import "testing"

func TestStaticPolicies(t *testing.T) {
	approve := NewApprovePolicy()
	if decision := approve.Authorize("order-1", 100); !decision.Approved {
		t.Fatal("approve policy must authorize")
	}

	decline := NewDeclinePolicy("card expired")
	decision := decline.Authorize("order-1", 100)
	if decision.Approved {
		t.Fatal("decline policy must not authorize")
	}
	if decision.Reason != "card expired" {
		t.Fatalf("unexpected reason: %s", decision.Reason)
	}

	fallback := NewDeclinePolicy("")
	if decision := fallback.Authorize("order-1", 100); decision.Reason != ReasonInsufficientFunds {
		t.Fatalf("expected default reason, got %s", decision.Reason)
	}
}

func TestRandomPolicyBounds(t *testing.T) {
	never := NewRandomPolicy(0)
	for i := 0; i < 50; i++ {
		if decision := never.Authorize("order-1", 100); decision.Approved {
			t.Fatal("rate 0 must never approve")
		}
	}

	always := NewRandomPolicy(1)
	for i := 0; i < 50; i++ {
		if decision := always.Authorize("order-1", 100); !decision.Approved {
			t.Fatal("rate 1 must always approve")
		}
	}

	// Значения вне диапазона зажимаются.
	clampedLow := NewRandomPolicy(-0.5)
	if decision := clampedLow.Authorize("order-1", 100); decision.Approved {
		t.Fatal("negative rate must clamp to 0")
	}
	clampedHigh := NewRandomPolicy(1.5)
	if decision := clampedHigh.Authorize("order-1", 100); !decision.Approved {
		t.Fatal("rate above 1 must clamp to 1")
	}
}
