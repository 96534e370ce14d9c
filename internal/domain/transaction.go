package domain

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionType is the closed classification assigned to every notification.
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypePayment    TransactionType = "payment"
	TypeTransfer   TransactionType = "transfer"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeOther      TransactionType = "other"
)

// StatusConfirmed is the only status produced by the parser.
const StatusConfirmed = "confirmed"

// TransactionTypes lists every valid classification.
var TransactionTypes = []TransactionType{TypeDeposit, TypePayment, TypeTransfer, TypeWithdrawal, TypeOther}

// Valid reports whether t belongs to the classification set.
func (t TransactionType) Valid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TransactionFields holds everything extracted from one message body before assembly.
// Amount and Currency are always set together or not at all.
type TransactionFields struct {
	TransactionType         TransactionType     `json:"TransactionType"`
	Amount                  decimal.NullDecimal `json:"Amount"`
	Currency                *string             `json:"Currency"`
	DateTime                *string             `json:"DateTime"`
	ReferenceNumber         *string             `json:"ReferenceNumber"`
	BalanceAfterTransaction decimal.NullDecimal `json:"BalanceAfterTransaction"`
	Status                  string              `json:"Status"`
	MessageText             string              `json:"MessageText"`
}

// Transaction is the assembled output record. TransactionID is the 1-based position
// of the source message among successfully parsed messages.
type Transaction struct {
	TransactionID int `json:"TransactionID"`
	TransactionFields
	Participants []Participant `json:"Participants"`
}

// Sender returns the sender participant, if any.
func (t Transaction) Sender() (Participant, bool) {
	return t.participant(RoleSender)
}

// Receiver returns the receiver participant, if any.
func (t Transaction) Receiver() (Participant, bool) {
	return t.participant(RoleReceiver)
}

func (t Transaction) participant(role Role) (Participant, bool) {
	for _, p := range t.Participants {
		if p.UserType == role {
			return p, true
		}
	}
	return Participant{}, false
}
