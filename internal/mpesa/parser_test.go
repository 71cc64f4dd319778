package mpesa

import (
	"errors"
	"testing"
	"time"

	"github.com/NgigiN/ledger/internal/statement"
)

func TestParseOutgoingVariants(t *testing.T) {
	cases := []struct {
		msg    string
		code   string
		party  string
		amount string
	}{
		{`TIH5CRR635 Confirmed. Ksh65.00 paid to Anthony Wambua Muinde2. on 17/9/25 at 6:56 PM.New M-PESA balance is Ksh719.18. Transaction cost, Ksh0.00. Amount you can transact within the day is 498,760.00. Save frequent Tills for quick payment on M-PESA app https://bit.ly/mpesalnk`, "TIH5CRR635", "Anthony Wambua Muinde2", "-65"},
		{`TIH6CSP6KA Confirmed. Ksh40.00 sent to Co-operative Bank Money Transfer for account 1082111 on 17/9/25 at 6:59 PM New M-PESA balance is Ksh679.18. Transaction cost, Ksh0.00.`, "TIH6CSP6KA", "Co-operative Bank Money Transfer for account 1082111", "-40"},
		{`TII5I5YNFP Confirmed. Ksh1,035.50 paid to FELIX MWENDWA KIKOLE. on 18/9/25 at 7:18PM.New M-PESA balance is Ksh644.18. Transaction cost, Ksh0.00.`, "TII5I5YNFP", "FELIX MWENDWA KIKOLE", "-1035.5"},
		{`TII8I79A5O Confirmed. Ksh40.00 sent to Divinah  Nyabuto on 18/9/25 at 7:22 PM. New M-PESA balance is Ksh604.18. Transaction cost, Ksh0.00. Amount you can transact within the day is 499,925.00.`, "TII8I79A5O", "Divinah Nyabuto", "-40"},
	}

	for _, c := range cases {
		p, err := Parse(c.msg)
		if err != nil {
			t.Fatalf("expected parse ok for %s, got err: %v", c.code, err)
		}
		if p.Code != c.code {
			t.Fatalf("wrong code. want %s got %s", c.code, p.Code)
		}
		if p.Counterparty != c.party {
			t.Fatalf("wrong counterparty for %s: %q", c.code, p.Counterparty)
		}
		if p.Amount.String() != c.amount {
			t.Fatalf("wrong amount for %s: want %s got %s", c.code, c.amount, p.Amount)
		}
	}
}

func TestParseIncoming(t *testing.T) {
	msg := `TJK1AB2CD3 Confirmed.You have received Ksh2,500.00 from JANE DOE 0712345678 on 3/10/25 at 9:15 AM New M-PESA balance is Ksh3,104.18.`
	p, err := Parse(msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Amount.String() != "2500" {
		t.Fatalf("expected positive 2500, got %s", p.Amount)
	}
	want := time.Date(2025, time.October, 3, 9, 15, 0, 0, time.UTC)
	if !p.Time.Equal(want) {
		t.Fatalf("want %v got %v", want, p.Time)
	}
}

func TestParseRejectsOtherText(t *testing.T) {
	if _, err := Parse("Your data bundle expires tomorrow"); !errors.Is(err, ErrNotConfirmation) {
		t.Fatalf("expected ErrNotConfirmation, got %v", err)
	}
}

func TestSplitAndTable(t *testing.T) {
	text := "here are today's\n" +
		"TIH5CRR635 Confirmed. Ksh65.00 paid to Java House. on 17/9/25 at 6:56 PM.New M-PESA balance is Ksh719.18. Transaction cost, Ksh0.00.\n" +
		"\n" +
		"TIH6CSP6KA Confirmed. Ksh40.00 sent to Divinah Nyabuto on 17/9/25\n" +
		"at 6:59 PM New M-PESA balance is Ksh679.18. Transaction cost, Ksh0.00.\n" +
		"TIH7XXXXXX Confirmed. something we do not understand\n"

	if got := len(Split(text)); got != 3 {
		t.Fatalf("expected 3 messages, got %d", got)
	}

	table, errs := Table(text)
	if len(errs) != 1 {
		t.Fatalf("expected one parse error, got %v", errs)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[1][0] != "2025-09-17" || table.Rows[1][2] != "-40.00" {
		t.Fatalf("unexpected row %v", table.Rows[1])
	}

	batch, err := statement.Validate(table)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if batch.Accepted() != 2 {
		t.Fatalf("expected both rows accepted, got %d", batch.Accepted())
	}
}
