package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"costs/internal/core"
)

func TestMemoryStoreSharedAcrossOpens(t *testing.T) {
	ctx := context.Background()
	d := NewDriver()

	a, err := d.Open(ctx, "costsdb", 1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id, err := a.Insert(ctx, core.Expense{Sum: decimal.NewFromInt(1), Category: core.Food, Description: "t"})
	if err != nil || id != 1 {
		t.Fatalf("unexpected insert: id=%d err=%v", id, err)
	}

	b, _ := d.Open(ctx, "costsdb", 1)
	got, _ := b.ListAll(ctx)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected shared data, got %v", got)
	}

	other, _ := d.Open(ctx, "other", 1)
	got, _ = other.ListAll(ctx)
	if len(got) != 0 {
		t.Fatalf("expected separate store per name, got %v", got)
	}
}

func TestMemoryListAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := NewDriver().Open(ctx, "costsdb", 1)
	_, _ = s.Insert(ctx, core.Expense{Description: "a"})

	got, _ := s.ListAll(ctx)
	got[0].Description = "mutated"

	again, _ := s.ListAll(ctx)
	if again[0].Description != "a" {
		t.Fatalf("ListAll must not expose internal state")
	}
}
