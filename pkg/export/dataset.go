package export

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Dataset defines tabular export content. Rows keep the order they were appended in.
type Dataset struct {
	Title       string
	GeneratedAt string
	Headers     []string
	Rows        [][]string
	Stats       []Stat
}

// Stat is a labelled aggregate rendered above the table.
type Stat struct {
	Label string
	Value string
}

// AddRow appends a record, padding or truncating it to the header width.
func (d *Dataset) AddRow(values ...string) {
	row := make([]string, len(d.Headers))
	copy(row, values)
	d.Rows = append(d.Rows, row)
}

// MoneyFormatter renders amounts with digit grouping and a currency prefix.
type MoneyFormatter struct {
	symbol  string
	printer *message.Printer
}

// NewMoneyFormatter builds a formatter for the given currency symbol.
func NewMoneyFormatter(symbol string) *MoneyFormatter {
	return &MoneyFormatter{symbol: symbol, printer: message.NewPrinter(language.English)}
}

// Format renders amount as e.g. ₹100,000. Whole amounts carry no decimals.
func (f *MoneyFormatter) Format(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	if amount.Equal(amount.Truncate(0)) {
		return sign + f.symbol + f.printer.Sprintf("%d", amount.IntPart())
	}
	value, _ := amount.Round(2).Float64()
	return sign + f.symbol + f.printer.Sprintf("%.2f", value)
}

// Count renders an integer with grouping.
func (f *MoneyFormatter) Count(n int) string {
	return f.printer.Sprintf("%d", n)
}
