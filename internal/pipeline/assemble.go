package pipeline

import (
	"time"

	"github.com/vanshika/momoledger/internal/domain"
	"github.com/vanshika/momoledger/internal/identity"
)

// DateTimeLayout is the format of every DateTime value in the output.
const DateTimeLayout = "2006-01-02 15:04:05"

// FormatTimestamp converts epoch milliseconds to a UTC DateTime string.
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(DateTimeLayout)
}

// Assemble builds the output record for one message. An explicit date-time in
// the body wins over the message timestamp. Participant identities are resolved
// against ids in list order.
func Assemble(id int, msg domain.RawMessage, fields domain.TransactionFields, participants []domain.Participant, ids *identity.Map) domain.Transaction {
	tx := domain.Transaction{
		TransactionID:     id,
		TransactionFields: fields,
		Participants:      make([]domain.Participant, len(participants)),
	}

	if tx.DateTime == nil && msg.TimestampMillis != nil {
		formatted := FormatTimestamp(*msg.TimestampMillis)
		tx.DateTime = &formatted
	}

	copy(tx.Participants, participants)
	ids.Assign(tx.Participants)

	return tx
}
