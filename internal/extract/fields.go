package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vanshika/momoledger/internal/domain"
)

var (
	// Amount: digit group with optional thousands separators, one space, 3-letter code ("1,000 RWF").
	amountPattern = regexp.MustCompile(`([\d,]+) ([A-Za-z]{3})`)

	// Explicit timestamp inside the body: "at 2025-09-27 14:00:00".
	dateTimePattern = regexp.MustCompile(`at (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`)

	// Reference: "Financial Transaction Id: 12345" or "TxId:12345".
	referencePattern = regexp.MustCompile(`(?:Financial Transaction Id:|TxId:)\s*(\d+)`)

	// Balance: "New balance: 5,000 RWF", "new balance 5,000 RWF".
	balancePattern = regexp.MustCompile(`(?i)new balance:?\s*([\d,]+) ([a-z]{3})`)
)

// typeRule maps a body keyword to a transaction type.
type typeRule struct {
	keyword string
	result  domain.TransactionType
}

// typeRules is checked top to bottom; the first keyword contained in the body wins.
var typeRules = []typeRule{
	{keyword: "received", result: domain.TypeDeposit},
	{keyword: "payment", result: domain.TypePayment},
	{keyword: "transferred", result: domain.TypeTransfer},
	{keyword: "withdrawal", result: domain.TypeWithdrawal},
}

// Fields extracts the transaction fields from a message body. Fields that cannot
// be found are left unset; this never fails.
func Fields(body string) domain.TransactionFields {
	fields := domain.TransactionFields{
		TransactionType: Classify(body),
		Status:          domain.StatusConfirmed,
		MessageText:     strings.ReplaceAll(body, "'", "''"),
	}

	if m := amountPattern.FindStringSubmatch(body); m != nil {
		fields.Amount = parseDigitGroup(m[1])
		fields.Currency = stringPtr(m[2])
	}
	if m := dateTimePattern.FindStringSubmatch(body); m != nil {
		fields.DateTime = stringPtr(m[1])
	}
	if m := referencePattern.FindStringSubmatch(body); m != nil {
		fields.ReferenceNumber = stringPtr(m[1])
	}
	if m := balancePattern.FindStringSubmatch(body); m != nil {
		fields.BalanceAfterTransaction = parseDigitGroup(m[1])
	}

	return fields
}

// Classify returns the transaction type for a body using case-insensitive keyword priority.
func Classify(body string) domain.TransactionType {
	lower := strings.ToLower(body)
	for _, rule := range typeRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.result
		}
	}
	return domain.TypeOther
}

// parseDigitGroup strips thousands separators and parses the remaining digits.
// A group made only of separators yields an invalid (absent) value.
func parseDigitGroup(group string) decimal.NullDecimal {
	digits := strings.ReplaceAll(group, ",", "")
	if digits == "" {
		return decimal.NullDecimal{}
	}
	value, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(value)
}

func stringPtr(s string) *string {
	return &s
}
