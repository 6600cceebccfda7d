package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/invoicing"
	"github.com/ridwanfathin/invoicing-service/internal/money"
)

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Preview invoice totals offline",
	Long: `Compute invoice totals from tax-inclusive unit prices the same way the
service does on create: VAT 15%, NHIL 2.5% and GETFund 2.5% are backed out of
each line, a flat discount wins over a percentage, and the payment status and
balance are derived from the amount paid.

Lines come from repeated --line flags (UNIT_PRICE:QUANTITY[:DESCRIPTION]) or
from a JSON file holding an array of items as accepted by the API.`,
	Example: `  # One line of 230 inclusive
  invoicectl totals --line 230:1:Consulting

  # Two lines with a 10% discount and a deposit
  invoicectl totals --line 115:2 --line 57.5:1 --discount-percent 10 --paid 100

  # Items from a file, as JSON
  invoicectl totals --file items.json --json`,
	Args: cobra.NoArgs,
	RunE: runTotals,
}

var (
	totalsLines           []string
	totalsFile            string
	totalsDiscountPercent float64
	totalsDiscountAmount  float64
	totalsPaid            float64
	totalsJSON            bool
)

func init() {
	totalsCmd.Flags().StringArrayVar(&totalsLines, "line", nil, "Line as UNIT_PRICE:QUANTITY[:DESCRIPTION] (repeatable)")
	totalsCmd.Flags().StringVarP(&totalsFile, "file", "f", "", "JSON file with an array of items")
	totalsCmd.Flags().Float64Var(&totalsDiscountPercent, "discount-percent", 0, "Discount as a percentage of the subtotal")
	totalsCmd.Flags().Float64Var(&totalsDiscountAmount, "discount-amount", 0, "Flat discount; wins over --discount-percent")
	totalsCmd.Flags().Float64Var(&totalsPaid, "paid", 0, "Amount already paid")
	totalsCmd.Flags().BoolVar(&totalsJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(totalsCmd)
}

// TotalsReport is the output of the totals command
type TotalsReport struct {
	Lines         []domain.InvoiceLine        `json:"items"`
	Subtotal      float64                     `json:"subtotal"`
	TotalDiscount float64                     `json:"totalDiscount"`
	TotalNHIL     float64                     `json:"totalNhil"`
	TotalGetFund  float64                     `json:"totalGetFund"`
	TotalVAT      float64                     `json:"totalVat"`
	GrandTotal    float64                     `json:"grandTotal"`
	AmountPaid    float64                     `json:"amountPaid"`
	BalanceDue    float64                     `json:"balanceDue"`
	Status        domain.InvoiceStatus        `json:"status"`
	Warnings      []invoicing.CoercionWarning `json:"warnings,omitempty"`
}

func runTotals(cmd *cobra.Command, args []string) error {
	var inputs []invoicing.LineInput

	if totalsFile != "" {
		data, err := os.ReadFile(totalsFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", totalsFile, err)
		}
		if err := json.Unmarshal(data, &inputs); err != nil {
			return fmt.Errorf("failed to parse %s: %w", totalsFile, err)
		}
	}

	for _, raw := range totalsLines {
		in, err := parseLineFlag(raw)
		if err != nil {
			return err
		}
		inputs = append(inputs, in)
	}

	if len(inputs) == 0 {
		return fmt.Errorf("no lines given, use --line or --file")
	}

	report := computeTotals(inputs, invoicing.Discount{
		Percent: totalsDiscountPercent,
		Amount:  totalsDiscountAmount,
	}, totalsPaid)

	if totalsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printTotals(cmd.OutOrStdout(), report)
}

// parseLineFlag parses UNIT_PRICE:QUANTITY[:DESCRIPTION]
func parseLineFlag(raw string) (invoicing.LineInput, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 {
		return invoicing.LineInput{}, fmt.Errorf("invalid line %q: expected UNIT_PRICE:QUANTITY[:DESCRIPTION]", raw)
	}

	unitPrice, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return invoicing.LineInput{}, fmt.Errorf("invalid unit price in %q: %w", raw, err)
	}
	quantity, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return invoicing.LineInput{}, fmt.Errorf("invalid quantity in %q: %w", raw, err)
	}

	in := invoicing.LineInput{
		UnitPrice: domain.NumberOf(unitPrice),
		Quantity:  domain.NumberOf(quantity),
	}
	if len(parts) == 3 {
		in.Description = parts[2]
	}
	return in, nil
}

func computeTotals(inputs []invoicing.LineInput, discount invoicing.Discount, paid float64) TotalsReport {
	normalized := invoicing.NormalizeLines(inputs)
	totals := invoicing.ComputeTotalsFromInclusivePricing(normalized, discount)
	payment := invoicing.ReconcileOnCreate(invoicing.PaymentChange{
		GrandTotal: totals.GrandTotal,
		AmountPaid: paid,
	})

	return TotalsReport{
		Lines:         normalized.Lines,
		Subtotal:      totals.Subtotal,
		TotalDiscount: totals.TotalDiscount,
		TotalNHIL:     totals.TotalNHIL,
		TotalGetFund:  totals.TotalGetFund,
		TotalVAT:      totals.TotalVAT,
		GrandTotal:    totals.GrandTotal,
		AmountPaid:    paid,
		BalanceDue:    payment.BalanceDue,
		Status:        payment.Status,
		Warnings:      normalized.Warnings,
	}
}

func printTotals(w io.Writer, r TotalsReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "#\tDescription\tUnit price\tQty\tBase\tTotal\t")
	for _, line := range r.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%s\t%s\t\n",
			line.SequenceNumber, line.Description, money.Format(line.UnitPrice), line.Quantity,
			money.Format(line.BaseAmount), money.Format(line.TotalInclusive))
	}
	fmt.Fprintln(tw, "\t\t\t\t\t\t")

	for _, row := range []struct {
		label  string
		amount float64
	}{
		{"Subtotal", r.Subtotal},
		{"Discount", r.TotalDiscount},
		{"NHIL 2.5%", r.TotalNHIL},
		{"GETFund 2.5%", r.TotalGetFund},
		{"VAT 15%", r.TotalVAT},
		{"Grand total", r.GrandTotal},
		{"Paid", r.AmountPaid},
		{"Balance due", r.BalanceDue},
	} {
		fmt.Fprintf(tw, "\t\t\t\t%s\t%s\t\n", row.label, money.Format(row.amount))
	}
	fmt.Fprintf(tw, "\t\t\t\tStatus\t%s\t\n", r.Status)

	if err := tw.Flush(); err != nil {
		return err
	}

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning: line %d: %s\n", warn.Line, warn.Message)
	}
	return nil
}
