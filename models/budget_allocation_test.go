package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateBudgetAllocations(t *testing.T) {
	total := decimal.NewFromInt(10000)

	ok := []NewBudgetCategory{
		{Category: ExpenseCategorySoftware, AllocatedAmount: decimal.NewFromInt(6000)},
		{Category: ExpenseCategoryTravel, AllocatedAmount: decimal.NewFromInt(4000)},
	}
	if err := ValidateBudgetAllocations(total, ok); err != nil {
		t.Fatalf("allocations equal to the total should pass, got %v", err)
	}

	if err := ValidateBudgetAllocations(total, nil); err != nil {
		t.Fatalf("no categories should pass, got %v", err)
	}

	over := []NewBudgetCategory{
		{Category: ExpenseCategorySoftware, AllocatedAmount: decimal.NewFromInt(8000)},
		{Category: ExpenseCategoryTravel, AllocatedAmount: decimal.NewFromInt(4000)},
	}
	if err := ValidateBudgetAllocations(total, over); err == nil {
		t.Fatalf("expected error when allocations exceed the total")
	}

	duplicate := []NewBudgetCategory{
		{Category: ExpenseCategoryMeals, AllocatedAmount: decimal.NewFromInt(100)},
		{Category: ExpenseCategoryMeals, AllocatedAmount: decimal.NewFromInt(100)},
	}
	if err := ValidateBudgetAllocations(total, duplicate); err == nil {
		t.Fatalf("expected error for a repeated category")
	}

	negative := []NewBudgetCategory{
		{Category: ExpenseCategoryMeals, AllocatedAmount: decimal.NewFromInt(-1)},
	}
	if err := ValidateBudgetAllocations(total, negative); err == nil {
		t.Fatalf("expected error for a negative allocation")
	}

	unknown := []NewBudgetCategory{
		{Category: ExpenseCategory("LUNCH"), AllocatedAmount: decimal.NewFromInt(100)},
	}
	if err := ValidateBudgetAllocations(total, unknown); err == nil {
		t.Fatalf("expected error for an unknown category")
	}
}

func TestUtilizationRate(t *testing.T) {
	if got := UtilizationRate(decimal.NewFromInt(50), decimal.NewFromInt(200)); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
	if got := UtilizationRate(decimal.NewFromInt(300), decimal.NewFromInt(200)); got != 1.5 {
		t.Fatalf("expected 1.5 when over budget, got %v", got)
	}
	if got := UtilizationRate(decimal.NewFromInt(50), decimal.Zero); got != 0 {
		t.Fatalf("expected 0 for a zero total, got %v", got)
	}
}
