package export

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/mcclellann/ledgerbook/pkg/calc"
	"github.com/mcclellann/ledgerbook/pkg/models"
	"github.com/mcclellann/ledgerbook/pkg/settings"
)

const currency = "₹"

// WritePersonReport writes the plain-text statement for one counterparty,
// labelled in the translator's language. Totals use the accrued amounts.
func WritePersonReport(w io.Writer, s calc.LoanSummary, tr settings.Translator) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s: %s\n\n", tr("Transactions Report for"), s.Name)
	fmt.Fprintf(bw, "%s: %s%s\n", tr("Total Given"), currency, s.CurrentGiven.StringFixed(2))
	fmt.Fprintf(bw, "%s: %s%s\n", tr("Total Taken"), currency, s.CurrentTaken.StringFixed(2))
	fmt.Fprintf(bw, "%s: %s%s\n\n", tr("Net Amount"), currency, s.CurrentNet().StringFixed(2))

	for i, tx := range s.Transactions {
		kind := "Given"
		if tx.Kind == models.LoanKindTaken {
			kind = "Taken"
		}
		fmt.Fprintf(bw, "%d. %s\n", i+1, tr(kind))
		fmt.Fprintf(bw, "   %s: %s%s\n", tr("Amount"), currency, tx.Principal.StringFixed(2))
		fmt.Fprintf(bw, "   %s: %s%%\n", tr("Interest Rate"), tx.AnnualInterestRatePercent.String())
		fmt.Fprintf(bw, "   %s: %s\n", tr("Date"), tx.OriginDate.Format(time.DateOnly))
		fmt.Fprintf(bw, "   %s: %s%s\n", tr("Current Amount"), currency, tx.CurrentAccruedAmount.StringFixed(2))
		fmt.Fprintf(bw, "   %s: %d (%s)\n", tr("Days Elapsed"), tx.ElapsedDays, calc.ElapsedSince(tx.OriginDate, tx.ElapsedDays))
		if tx.IsSettled {
			fmt.Fprintf(bw, "   %s: %s\n", tr("Status"), tr("Settled"))
			if tx.SettledDate != nil {
				fmt.Fprintf(bw, "   %s: %s\n", tr("Settled Date"), tx.SettledDate.Format(time.DateOnly))
			}
		} else {
			fmt.Fprintf(bw, "   %s: %s\n", tr("Status"), tr("Pending"))
		}
		if tx.Remarks != "" {
			fmt.Fprintf(bw, "   %s: %s\n", tr("Remarks"), tx.Remarks)
		}
		if tx.SettlementRemarks != "" {
			fmt.Fprintf(bw, "   %s: %s\n", tr("Remarks"), tx.SettlementRemarks)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
