package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/ledger/internal/domain"
	"github.com/shopspring/decimal"
)

const minFields = 5

var (
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
)

// ParseRecord validates one data line of the form
// id,YYYY-MM-DD,payee,amount,currency[,category].
// Rules are applied in field order and the first failure is reported
// as a *MalformedRecordError.
func ParseRecord(line string) (domain.Transaction, error) {
	fields := strings.Split(line, ",")
	if len(fields) < minFields {
		return domain.Transaction{}, malformed(ReasonIncorrectColumnCount)
	}

	id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || id <= 0 {
		return domain.Transaction{}, malformed(ReasonInvalidID)
	}

	date, ok := parseDate(fields[1])
	if !ok {
		return domain.Transaction{}, malformed(ReasonInvalidDate)
	}

	payee := strings.TrimSpace(fields[2])
	if payee == "" {
		return domain.Transaction{}, malformed(ReasonEmptyPayee)
	}

	amount, reason := parseAmount(fields[3])
	if reason != 0 {
		return domain.Transaction{}, malformed(reason)
	}

	currency := strings.TrimSpace(fields[4])
	if currency == "" {
		return domain.Transaction{}, malformed(ReasonEmptyCurrency)
	}

	category := domain.DefaultCategory
	if len(fields) > minFields {
		if c := strings.TrimSpace(fields[5]); c != "" {
			category = c
		}
	}

	return domain.Transaction{
		ID:        id,
		Timestamp: date,
		Payee:     payee,
		Amount:    amount,
		Currency:  currency,
		Category:  category,
	}, nil
}

func malformed(r Reason) error {
	return &MalformedRecordError{Reason: r}
}

// parseDate accepts only the exact 4-2-2 digit form of a real calendar date.
func parseDate(s string) (civil.Date, bool) {
	if !datePattern.MatchString(s) {
		return civil.Date{}, false
	}
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return civil.Date{}, false
	}
	return d, true
}

func parseAmount(s string) (decimal.Decimal, Reason) {
	s = strings.TrimSpace(s)
	if !decimalPattern.MatchString(s) {
		return decimal.Decimal{}, ReasonInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ReasonInvalidAmount
	}
	if d.LessThan(domain.MinAmount) || d.GreaterThan(domain.MaxAmount) {
		return decimal.Decimal{}, ReasonAmountOutOfRange
	}
	return d, 0
}
