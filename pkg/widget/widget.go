// Package widget renders the price ticker in a terminal, redrawing in place
// on every update.
package widget

import (
	"io"
	"sync"
	"time"

	"github.com/Sternrassler/coin-price-cache/pkg/consumer"
	"github.com/fatih/color"
	"github.com/gosuri/uilive"
	"github.com/olekukonko/tablewriter"
)

const (
	colName    = "Name"
	colSymbol  = "Symbol"
	colPrice   = "Price"
	colStatus  = "Status"
	colUpdated = "Updated"
)

var faint = color.New(color.Faint).SprintFunc()

// Renderer draws a consumer.View as a one-row table.
type Renderer struct {
	mu     sync.Mutex
	writer *uilive.Writer
	table  *tablewriter.Table
}

// New creates a renderer writing to out.
func New(out io.Writer) *Renderer {
	r := &Renderer{writer: uilive.New()}
	r.writer.Out = out

	r.table = tablewriter.NewWriter(r.writer)
	r.table.SetAutoFormatHeaders(false)
	r.table.SetAutoWrapText(false)
	headers := []string{colName, colSymbol, colPrice, colStatus, colUpdated}
	for i, hdr := range headers {
		headers[i] = color.YellowString(hdr)
	}
	r.table.SetHeader(headers)
	r.table.SetCenterSeparator(faint("-"))
	r.table.SetColumnSeparator(faint("|"))
	r.table.SetRowSeparator(faint("-"))
	return r
}

// Render redraws the ticker with view, stamped with at.
func (r *Renderer) Render(view consumer.View, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := color.GreenString("ok")
	price := view.Price
	if view.Error {
		status = color.RedString(view.ErrorMessage)
		price = faint(price)
	}

	r.table.ClearRows()
	r.table.Append([]string{view.Name, view.Symbol, price, status, at.Local().Format("15:04:05")})
	r.table.Render()
	return r.writer.Flush()
}
