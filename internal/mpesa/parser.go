// Package mpesa turns pasted M-PESA confirmation messages into statement
// rows so they go through the same import pipeline as uploaded files.
package mpesa

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NgigiN/ledger/internal/statement"
)

var ErrNotConfirmation = errors.New("not a valid M-PESA confirmation")

// Message is one parsed confirmation. Amount is negative for money sent or
// paid and positive for money received.
type Message struct {
	Code         string
	Amount       decimal.Decimal
	Counterparty string
	Time         time.Time
	Balance      decimal.Decimal
	Cost         decimal.Decimal
	Text         string
}

const (
	money    = `Ksh[\d,]+(?:\.\d+)?`
	when     = `\s+on\s+(\d{1,2}/\d{1,2}/\d{2})\s+at\s+(\d{1,2}:\d{2}\s?(?:AM|PM))\.?\s*`
	balance  = `New\s+(?:M-PESA|business)\s+balance\s+is\s+(` + money + `)`
	txLayout = "2/1/06 3:04 PM"
)

var (
	outgoingRe = regexp.MustCompile(`(?i)(\w+)\s+Confirmed\.?\s+(` + money + `)\s+(?:sent|paid)\s+to\s+(.*?)\s*\.?` + when + balance + `\.\s*Transaction\s+cost,?\s*(` + money + `)`)
	incomingRe = regexp.MustCompile(`(?i)(\w+)\s+Confirmed\.?\s*You\s+have\s+received\s+(` + money + `)\s+from\s+(.*?)\s*\.?` + when + balance)
	startRe    = regexp.MustCompile(`(?i)^\w+\s+Confirmed\b`)
	meridiemRe = regexp.MustCompile(`\s*(AM|PM)$`)
)

// Parse reads a single confirmation.
func Parse(text string) (*Message, error) {
	if m := outgoingRe.FindStringSubmatch(text); m != nil {
		msg, err := build(m[1], m[2], m[3], m[4], m[5], m[6], text)
		if err != nil {
			return nil, err
		}
		if msg.Cost, err = parseMoney(m[7]); err != nil {
			return nil, err
		}
		msg.Amount = msg.Amount.Neg()
		return msg, nil
	}
	if m := incomingRe.FindStringSubmatch(text); m != nil {
		return build(m[1], m[2], m[3], m[4], m[5], m[6], text)
	}
	return nil, ErrNotConfirmation
}

func build(code, amount, party, day, clock, bal, text string) (*Message, error) {
	amt, err := parseMoney(amount)
	if err != nil {
		return nil, err
	}
	b, err := parseMoney(bal)
	if err != nil {
		return nil, err
	}
	clock = meridiemRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(clock)), " $1")
	t, err := time.Parse(txLayout, day+" "+clock)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date/time: %w", err)
	}
	party = strings.Join(strings.Fields(strings.TrimSuffix(party, ".")), " ")
	return &Message{
		Code:         strings.ToUpper(code),
		Amount:       amt,
		Counterparty: party,
		Time:         t,
		Balance:      b,
		Text:         strings.TrimSpace(text),
	}, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimLeft(s, "KkSsHh"), ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	return d, nil
}

// Split breaks pasted text into individual confirmations. A line starting
// with "<code> Confirmed" opens a new message; other lines continue the
// current one. Text before the first confirmation is dropped.
func Split(text string) []string {
	var out []string
	var cur []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if startRe.MatchString(line) {
			if len(cur) > 0 {
				out = append(out, strings.Join(cur, " "))
			}
			cur = []string{line}
		} else if len(cur) > 0 {
			cur = append(cur, line)
		}
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

// IsConfirmation reports whether text contains at least one confirmation.
func IsConfirmation(text string) bool {
	return len(Split(text)) > 0
}

// Table converts every confirmation in text into a statement row. Messages
// that fail to parse are returned as errors numbered from 1 in paste order.
func Table(text string) (*statement.Table, []error) {
	table := &statement.Table{
		Header: []string{statement.ColumnDate, statement.ColumnDescription, statement.ColumnAmount, statement.ColumnRawText},
	}
	var errs []error
	for i, raw := range Split(text) {
		msg, err := Parse(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("message %d: %w", i+1, err))
			continue
		}
		table.Rows = append(table.Rows, []string{
			msg.Time.Format("2006-01-02"),
			msg.Counterparty,
			msg.Amount.StringFixed(2),
			msg.Text,
		})
	}
	return table, errs
}
