package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vanshika/momoledger/internal/domain"
)

var csvHeader = []string{
	"transaction_id",
	"transaction_type",
	"amount",
	"currency",
	"date_time",
	"reference_number",
	"balance_after_transaction",
	"status",
	"sender_id",
	"sender_name",
	"sender_phone",
	"receiver_id",
	"receiver_name",
	"receiver_phone",
	"message_text",
}

// WriteCSV writes one row per transaction with sender and receiver flattened
// into columns. Absent values are empty cells.
func WriteCSV(w io.Writer, txs []domain.Transaction) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, tx := range txs {
		sender, _ := tx.Sender()
		receiver, _ := tx.Receiver()
		row := []string{
			strconv.Itoa(tx.TransactionID),
			string(tx.TransactionType),
			formatDecimal(tx.Amount),
			deref(tx.Currency),
			deref(tx.DateTime),
			deref(tx.ReferenceNumber),
			formatDecimal(tx.BalanceAfterTransaction),
			tx.Status,
			formatUserID(sender),
			sender.Name,
			sender.PhoneNumber,
			formatUserID(receiver),
			receiver.Name,
			receiver.PhoneNumber,
			tx.MessageText,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", tx.TransactionID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatDecimal(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}

func formatUserID(p domain.Participant) string {
	if p.UserID == 0 {
		return ""
	}
	return strconv.Itoa(p.UserID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
