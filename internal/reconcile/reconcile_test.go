package reconcile

import (
	"testing"

	"github.com/vanshika/momoledger/internal/domain"
	"github.com/vanshika/momoledger/internal/identity"
)

func TestAnalyze_SharedIdentifier(t *testing.T) {
	m := identity.NewMap()
	m.Resolve("Jane Smith", "250788000001", domain.RoleReceiver)
	m.Resolve("Jane Smith", "250788000001", domain.RoleSender)
	m.Resolve("Bob Kim", "250788000002", domain.RoleReceiver)

	report := Analyze(m.Entries())

	if report.Identities != 3 {
		t.Fatalf("expected 3 identities, got %d", report.Identities)
	}
	if report.Count(KindSharedIdentifier) != 1 {
		t.Fatalf("expected one shared identifier gap, got %+v", report.Gaps)
	}
	gap := report.Gaps[0]
	if gap.Identifiers[0] != "250788000001" || len(gap.IdentityIDs) != 2 || gap.Detail != "roles differ" {
		t.Fatalf("unexpected gap %+v", gap)
	}
}

func TestAnalyze_MaskedVariant(t *testing.T) {
	m := identity.NewMap()
	m.Resolve("Jane Smith", "*********013", domain.RoleSender)
	m.Resolve("Jane Smith", "250788000013", domain.RoleReceiver)
	m.Resolve("Other", "250788000099", domain.RoleReceiver)

	report := Analyze(m.Entries())

	if report.Count(KindMaskedVariant) != 1 {
		t.Fatalf("expected one masked variant gap, got %+v", report.Gaps)
	}
	for _, gap := range report.Gaps {
		if gap.Kind != KindMaskedVariant {
			continue
		}
		if gap.Identifiers[0] != "*********013" || gap.Identifiers[1] != "250788000013" {
			t.Fatalf("unexpected identifiers %v", gap.Identifiers)
		}
	}
}

func TestMaskMatches(t *testing.T) {
	tests := []struct {
		masked string
		plain  string
		want   bool
	}{
		{masked: "*********013", plain: "250788000013", want: true},
		{masked: "*********013", plain: "250788000014", want: false},
		{masked: "*013", plain: "250788000013", want: true},
		{masked: "2507*****013", plain: "250788000013", want: true},
		{masked: "2507*****013", plain: "250688000013", want: false},
		{masked: "****", plain: "250788000013", want: false},
		{masked: "*013", plain: "", want: false},
	}

	for _, tt := range tests {
		if got := maskMatches(tt.masked, tt.plain); got != tt.want {
			t.Errorf("maskMatches(%q, %q) = %v, want %v", tt.masked, tt.plain, got, tt.want)
		}
	}
}

func TestAnalyze_NearDuplicateName(t *testing.T) {
	m := identity.NewMap()
	m.Resolve("Samuel Carter", "250788000001", domain.RoleReceiver)
	m.Resolve("Samuel Cartor", "250788000001", domain.RoleReceiver)
	m.Resolve("Completely Different", "250788000001", domain.RoleReceiver)

	report := Analyze(m.Entries())

	if report.Count(KindNearDuplicateName) != 1 {
		t.Fatalf("expected one near-duplicate gap, got %+v", report.Gaps)
	}
	if report.Count(KindSharedIdentifier) != 1 {
		t.Fatalf("expected one shared identifier gap, got %+v", report.Gaps)
	}
}

func TestAnalyze_NoGaps(t *testing.T) {
	m := identity.NewMap()
	m.Resolve("A", "1", domain.RoleSender)
	m.Resolve("B", "2", domain.RoleReceiver)

	report := Analyze(m.Entries())
	if len(report.Gaps) != 0 {
		t.Fatalf("expected no gaps, got %+v", report.Gaps)
	}
	if report.Gaps == nil {
		t.Fatalf("expected empty, non-nil gap list")
	}
}

func TestEntriesFromTransactions(t *testing.T) {
	txs := []domain.Transaction{
		{TransactionID: 1, Participants: []domain.Participant{
			{UserID: 2, Name: "Jane Smith", PhoneNumber: "250788000001", UserType: domain.RoleReceiver},
		}},
		{TransactionID: 2, Participants: []domain.Participant{
			{UserID: 1, Name: "John Clive", PhoneNumber: "*********013", UserType: domain.RoleSender},
			{UserID: 2, Name: "Jane Smith", PhoneNumber: "250788000001", UserType: domain.RoleReceiver},
		}},
		{TransactionID: 3},
	}

	entries := EntriesFromTransactions(txs)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].ID != 1 || entries[0].Name != "John Clive" || entries[0].Role != domain.RoleSender {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].ID != 2 || entries[1].Identifier != "250788000001" {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
}
