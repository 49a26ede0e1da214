package notionsync

import (
	"time"

	"github.com/dvloznov/ledger/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names of the ledger database. The database must define them with
// these types: Payee (title), Transaction ID (number), Date (date),
// Amount (number), Currency (select), Category (select).
const (
	PropPayee         = "Payee"
	PropTransactionID = "Transaction ID"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropCurrency      = "Currency"
	PropCategory      = "Category"
)

// TransactionToNotionProperties converts a ledger transaction to page properties.
func TransactionToNotionProperties(tx domain.Transaction) notionapi.Properties {
	date := notionapi.Date(tx.Timestamp.In(time.UTC))

	props := notionapi.Properties{
		PropPayee: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: tx.Payee},
				},
			},
		},
		PropTransactionID: notionapi.NumberProperty{
			Number: float64(tx.ID),
		},
		PropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
		PropAmount: notionapi.NumberProperty{
			Number: tx.Amount.InexactFloat64(),
		},
		PropCategory: notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Category},
		},
	}

	// Select options cannot be empty strings.
	if tx.Currency != "" {
		props[PropCurrency] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Currency},
		}
	}

	return props
}

// transactionIDFromPage reads the Transaction ID number property of a page.
// Pages created by hand may not carry one.
func transactionIDFromPage(page notionapi.Page) (int, bool) {
	prop, ok := page.Properties[PropTransactionID]
	if !ok {
		return 0, false
	}

	var n float64
	switch p := prop.(type) {
	case *notionapi.NumberProperty:
		n = p.Number
	case notionapi.NumberProperty:
		n = p.Number
	default:
		return 0, false
	}

	if n != float64(int(n)) {
		return 0, false
	}
	return int(n), true
}
