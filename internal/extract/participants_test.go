package extract

import (
	"reflect"
	"testing"

	"github.com/vanshika/momoledger/internal/domain"
)

func TestParticipants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []domain.Participant
	}{
		{
			name: "masked sender and bare receiver",
			body: scenarioBody,
			want: []domain.Participant{
				{Name: "John Clive", PhoneNumber: "*256700000001", UserType: domain.RoleSender},
				{Name: "Jane Smith", PhoneNumber: "256700000002", UserType: domain.RoleReceiver},
			},
		},
		{
			name: "payment with both parties",
			body: "Payment from John Clive (*256700000001) to Jane Smith 256700000002",
			want: []domain.Participant{
				{Name: "John Clive", PhoneNumber: "*256700000001", UserType: domain.RoleSender},
				{Name: "Jane Smith", PhoneNumber: "256700000002", UserType: domain.RoleReceiver},
			},
		},
		{
			name: "parenthesised receiver",
			body: "You have transferred 500 RWF to Alice Uwase (250788123456) at 2025-01-02 10:00:00.",
			want: []domain.Participant{
				{Name: "Alice Uwase", PhoneNumber: "250788123456", UserType: domain.RoleReceiver},
			},
		},
		{
			name: "receiver fallback layout",
			body: "Payment to Shop_2 (250700111222) completed",
			want: []domain.Participant{
				{Name: "Shop_2", PhoneNumber: "250700111222", UserType: domain.RoleReceiver},
			},
		},
		{
			name: "sender keyword is case-insensitive",
			body: "You have received 2000 RWF FROM Eric Mugisha (*********013) on your account.",
			want: []domain.Participant{
				{Name: "Eric Mugisha", PhoneNumber: "*********013", UserType: domain.RoleSender},
			},
		},
		{
			name: "no participants",
			body: "Airtime bundle purchased from USSD",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Participants(tt.body)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Participants() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParticipants_AtMostOneReceiver(t *testing.T) {
	body := "Sent to Ann Lee 250700000001 and to Bob Kim (250700000002)"
	got := Participants(body)
	if len(got) != 1 {
		t.Fatalf("expected one receiver, got %+v", got)
	}
	if got[0].Name != "Ann Lee" || got[0].PhoneNumber != "250700000001" {
		t.Fatalf("expected first receiver layout match, got %+v", got[0])
	}
}
