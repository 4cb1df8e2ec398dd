// Package export renders loans for sharing outside the app.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mcclellann/ledgerbook/pkg/models"
)

// CSVHeader is the first line of every loan export.
const CSVHeader = "Name,Type,Amount,Current Amount,Interest Rate,Initial Date,Days Elapsed,Transaction Remarks,Is Settled,Settled Date,Remarks"

// WriteLoansCSV writes one row per loan under CSVHeader.
//
// Fields are joined as-is: a comma inside a name or remark is not quoted and
// shifts the columns of that row. Readers of existing exports rely on the
// unquoted layout.
func WriteLoansCSV(w io.Writer, loans []models.LoanTransaction) error {
	if _, err := io.WriteString(w, CSVHeader+"\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, loan := range loans {
		if _, err := io.WriteString(w, csvRow(loan)+"\n"); err != nil {
			return fmt.Errorf("write csv row for loan %s: %w", loan.ID, err)
		}
	}
	return nil
}

func csvRow(loan models.LoanTransaction) string {
	settledDate := ""
	if loan.SettledDate != nil {
		settledDate = loan.SettledDate.Format(time.DateOnly)
	}
	return strings.Join([]string{
		loan.CounterpartyName,
		string(loan.Kind),
		loan.Principal.StringFixed(2),
		loan.CurrentAccruedAmount.StringFixed(2),
		loan.AnnualInterestRatePercent.String(),
		loan.OriginDate.Format(time.DateOnly),
		strconv.Itoa(loan.ElapsedDays),
		loan.Remarks,
		strconv.FormatBool(loan.IsSettled),
		settledDate,
		loan.SettlementRemarks,
	}, ",")
}
