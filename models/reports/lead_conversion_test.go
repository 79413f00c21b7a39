package reports

import (
	"testing"

	"github.com/craftlane/agency_backend/models"
)

func TestFillStatuses(t *testing.T) {
	counts := map[string]int64{
		"new":        3,
		"closed_won": 2,
		"legacy":     1,
	}
	filled := fillStatuses(counts, models.AllLeadStatuses())

	if len(filled) != len(models.AllLeadStatuses())+1 {
		t.Fatalf("expected every status plus the stray key, got %d entries", len(filled))
	}
	if filled["contacted"] != 0 {
		t.Fatalf("missing statuses should be filled with zero, got %d", filled["contacted"])
	}
	if filled["new"] != 3 || filled["closed_won"] != 2 {
		t.Fatalf("known counts should pass through, got %v", filled)
	}
	// values already in the table but outside the enum still show up
	if filled["legacy"] != 1 {
		t.Fatalf("stray value should pass through, got %v", filled)
	}
}

func TestLeadConversionRate(t *testing.T) {
	byStatus := map[string]int64{
		string(models.LeadStatusNew):        4,
		string(models.LeadStatusClosedWon):  2,
		string(models.LeadStatusClosedLost): 2,
	}
	if got := leadConversionRate(byStatus, 8); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
	if got := leadConversionRate(map[string]int64{}, 0); got != 0 {
		t.Fatalf("expected 0 for no leads, got %v", got)
	}
}
