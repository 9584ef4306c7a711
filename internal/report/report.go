// Package report turns a procurement plan into priced purchase lines. Money is
// carried as decimal values rounded to cents so totals reconcile line by line.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/supply-planner/internal/procurement"
)

const centPlaces = 2

// Line is the purchase from a single supplier.
type Line struct {
	SupplierID int             `json:"supplierId"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// Report summarises a plan for callers that need totals in addition to the raw
// allocations.
type Report struct {
	Requested int                 `json:"requested"`
	Outcome   procurement.Outcome `json:"outcome"`
	Lines     []Line              `json:"lines"`
	Quantity  int                 `json:"totalQuantity"`
	Total     decimal.Decimal     `json:"totalCost"`
}

// Build prices every allocation of plan. Lines are ordered by supplier id.
func Build(requested int, plan procurement.Plan) Report {
	r := Report{
		Requested: requested,
		Outcome:   plan.Outcome,
		Lines:     make([]Line, 0, len(plan.Allocations)),
		Total:     decimal.Zero,
	}

	for _, a := range plan.Allocations {
		subtotal := decimal.NewFromFloat(a.Cost).Round(centPlaces)
		unitPrice := decimal.Zero
		if a.Quantity > 0 {
			unitPrice = decimal.NewFromFloat(a.Cost).Div(decimal.NewFromInt(int64(a.Quantity))).Round(centPlaces)
		}
		r.Lines = append(r.Lines, Line{
			SupplierID: a.SupplierID,
			Quantity:   a.Quantity,
			UnitPrice:  unitPrice,
			Subtotal:   subtotal,
		})
		r.Quantity += a.Quantity
		r.Total = r.Total.Add(subtotal)
	}

	sort.Slice(r.Lines, func(i, j int) bool {
		return r.Lines[i].SupplierID < r.Lines[j].SupplierID
	})
	return r
}

// WriteText renders r as an aligned table.
func WriteText(w io.Writer, r Report) error {
	if len(r.Lines) == 0 {
		_, err := fmt.Fprintf(w, "no plan for %d units (%s)\n", r.Requested, r.Outcome)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SUPPLIER\tQUANTITY\tUNIT PRICE\tSUBTOTAL\t")
	for _, line := range r.Lines {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t\n",
			line.SupplierID, line.Quantity, line.UnitPrice.StringFixed(centPlaces), line.Subtotal.StringFixed(centPlaces))
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t\t%s\t\n", r.Quantity, r.Total.StringFixed(centPlaces))
	return tw.Flush()
}
