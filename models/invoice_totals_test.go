package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeInvoiceTotals_TaxRateIsPercent(t *testing.T) {
	items := []InvoiceItem{
		{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(500), TaxRate: decimal.NewFromInt(5)},
		{Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(95), TaxRate: decimal.Zero},
	}
	totals := ComputeInvoiceTotals(items)
	if totals.SubTotal.String() != "1950" {
		t.Fatalf("expected subTotal 1950, got %s", totals.SubTotal.String())
	}
	if totals.TaxTotal.String() != "50" {
		t.Fatalf("expected taxTotal 50, got %s", totals.TaxTotal.String())
	}
	if totals.Total.String() != "2000" {
		t.Fatalf("expected total 2000, got %s", totals.Total.String())
	}
	// line amounts are refreshed in place
	if items[0].Amount.String() != "1000" {
		t.Fatalf("expected first line amount 1000, got %s", items[0].Amount.String())
	}
	if items[1].Amount.String() != "950" {
		t.Fatalf("expected second line amount 950, got %s", items[1].Amount.String())
	}
}

func TestComputeInvoiceTotals_FractionalQuantities(t *testing.T) {
	items := []InvoiceItem{
		{Quantity: decimal.RequireFromString("7.5"), UnitPrice: decimal.NewFromInt(120), TaxRate: decimal.NewFromInt(10)},
	}
	totals := ComputeInvoiceTotals(items)
	if totals.SubTotal.String() != "900" {
		t.Fatalf("expected subTotal 900, got %s", totals.SubTotal.String())
	}
	if totals.TaxTotal.String() != "90" {
		t.Fatalf("expected taxTotal 90, got %s", totals.TaxTotal.String())
	}
	if totals.Total.String() != "990" {
		t.Fatalf("expected total 990, got %s", totals.Total.String())
	}
}

func TestComputeInvoiceTotals_Empty(t *testing.T) {
	totals := ComputeInvoiceTotals(nil)
	if !totals.SubTotal.IsZero() || !totals.TaxTotal.IsZero() || !totals.Total.IsZero() {
		t.Fatalf("expected zero totals for no items, got %+v", totals)
	}
}

func TestDerivePaymentStatus(t *testing.T) {
	total := decimal.NewFromInt(100)
	cases := []struct {
		name     string
		current  InvoiceStatus
		paid     string
		expected InvoiceStatus
	}{
		{"cancelled stays cancelled", InvoiceStatusCancelled, "100", InvoiceStatusCancelled},
		{"draft with no payments stays draft", InvoiceStatusDraft, "0", InvoiceStatusDraft},
		{"sent with no payments stays sent", InvoiceStatusSent, "0", InvoiceStatusSent},
		{"partial payment", InvoiceStatusSent, "40", InvoiceStatusPartiallyPaid},
		{"full payment", InvoiceStatusSent, "100", InvoiceStatusPaid},
		{"overpaid still paid", InvoiceStatusPartiallyPaid, "120", InvoiceStatusPaid},
		{"paid falls back to sent when payments vanish", InvoiceStatusPaid, "0", InvoiceStatusSent},
		{"partially paid falls back to sent when payments vanish", InvoiceStatusPartiallyPaid, "0", InvoiceStatusSent},
	}
	for _, tc := range cases {
		paid := decimal.RequireFromString(tc.paid)
		if got := DerivePaymentStatus(tc.current, total, paid); got != tc.expected {
			t.Fatalf("%s: DerivePaymentStatus(%s, 100, %s) = %s, expected %s",
				tc.name, tc.current, tc.paid, got, tc.expected)
		}
	}
}
