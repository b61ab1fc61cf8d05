package usecases

import (
	"context"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
)

// utf8BOM lets spreadsheet tools detect the encoding of exported files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"id", "contact", "company", "type", "amount", "paid_amount", "remaining_amount",
	"currency", "due_date", "status", "description", "created_at",
}

type ExportUsecase struct {
	transactions  *repository.TransactionRepository
	subscriptions *SubscriptionUsecase
	appURL        string
	now           func() time.Time
}

func NewExportUsecase(transactions *repository.TransactionRepository, subscriptions *SubscriptionUsecase, appURL string) *ExportUsecase {
	return &ExportUsecase{transactions: transactions, subscriptions: subscriptions, appURL: appURL, now: time.Now}
}

func (uc *ExportUsecase) load(ctx context.Context, userID int64, f repository.TransactionFilter) ([]entities.DebtTransaction, error) {
	if err := uc.subscriptions.RequireExport(ctx, userID); err != nil {
		return nil, err
	}
	return uc.transactions.List(ctx, userID, f)
}

// WriteCSV writes the user's transactions as CSV with a UTF-8 BOM.
func (uc *ExportUsecase) WriteCSV(ctx context.Context, userID int64, f repository.TransactionFilter, w io.Writer) error {
	txs, err := uc.load(ctx, userID, f)
	if err != nil {
		return err
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range txs {
		contact, company := "", ""
		if t.Contact != nil {
			contact, company = csvText(t.Contact.Name), csvText(t.Contact.Company)
		}
		row := []string{
			strconv.FormatInt(t.ID, 10),
			contact,
			company,
			string(t.Type),
			t.Amount.StringFixed(entities.MoneyPlaces),
			t.PaidAmount().StringFixed(entities.MoneyPlaces),
			t.RemainingAmount.StringFixed(entities.MoneyPlaces),
			t.Currency,
			t.DueDateString(),
			string(t.Status),
			csvText(t.Description),
			t.CreatedAt.Format(entities.DateLayout),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvText quotes user text that a spreadsheet would otherwise evaluate as a
// formula.
func csvText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Transactions report {{.GeneratedOn}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
td.num { text-align: right; }
.totals { margin: 1em 0; }
.qr { float: right; }
</style>
</head>
<body>
{{if .QRCode}}<img class="qr" src="{{.QRCode}}" alt="{{.AppURL}}" width="128" height="128">{{end}}
<h1>Transactions report</h1>
<p>Generated on {{.GeneratedOn}}</p>
<div class="totals">
<p>Open receivables: {{.ReceivableTotal}}</p>
<p>Open debts: {{.DebtTotal}}</p>
</div>
<table>
<thead><tr><th>Contact</th><th>Type</th><th>Amount</th><th>Remaining</th><th>Currency</th><th>Due date</th><th>Status</th><th>Description</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Contact}}</td><td>{{.Type}}</td><td class="num">{{.Amount}}</td><td class="num">{{.Remaining}}</td><td>{{.Currency}}</td><td>{{.DueDate}}</td><td>{{.Status}}</td><td>{{.Description}}</td></tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

type reportRow struct {
	Contact, Type, Amount, Remaining, Currency, DueDate, Status, Description string
}

type reportData struct {
	GeneratedOn     string
	AppURL          string
	QRCode          template.URL
	ReceivableTotal string
	DebtTotal       string
	Rows            []reportRow
}

// WriteReport renders a printable HTML report. When an app URL is configured
// the report carries a QR code pointing back to it.
func (uc *ExportUsecase) WriteReport(ctx context.Context, userID int64, f repository.TransactionFilter, w io.Writer) error {
	txs, err := uc.load(ctx, userID, f)
	if err != nil {
		return err
	}

	data := reportData{
		GeneratedOn: uc.now().Format(entities.DateLayout),
		AppURL:      uc.appURL,
		Rows:        make([]reportRow, 0, len(txs)),
	}
	if uc.appURL != "" {
		png, err := qrcode.Encode(uc.appURL, qrcode.Medium, 256)
		if err != nil {
			return fmt.Errorf("encode report qr code: %w", err)
		}
		data.QRCode = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	}

	receivable, debt := decimal.Zero, decimal.Zero
	for _, t := range txs {
		if !t.IsClosed() {
			if t.Type == entities.TransactionReceivable {
				receivable = receivable.Add(t.RemainingAmount)
			} else {
				debt = debt.Add(t.RemainingAmount)
			}
		}
		contact := ""
		if t.Contact != nil {
			contact = t.Contact.Name
		}
		data.Rows = append(data.Rows, reportRow{
			Contact:     contact,
			Type:        string(t.Type),
			Amount:      t.Amount.StringFixed(entities.MoneyPlaces),
			Remaining:   t.RemainingAmount.StringFixed(entities.MoneyPlaces),
			Currency:    t.Currency,
			DueDate:     t.DueDateString(),
			Status:      string(t.Status),
			Description: t.Description,
		})
	}
	data.ReceivableTotal = receivable.StringFixed(entities.MoneyPlaces)
	data.DebtTotal = debt.StringFixed(entities.MoneyPlaces)

	return reportTemplate.Execute(w, data)
}
