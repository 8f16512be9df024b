package token

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// balanceDigits is the fraction-digit count balances are rendered with.
const balanceDigits = 4

// Formatter renders amounts for display using a locale's decimal separator.
// Grouping separators are suppressed so the output stays machine-parseable.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter builds a Formatter for the given BCP 47 locale tag.
// An empty or unparseable tag falls back to English.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Balance renders d with exactly four fraction digits, e.g. "12345.6789".
func (f *Formatter) Balance(d decimal.Decimal) string {
	return f.printer.Sprint(number.Decimal(d.InexactFloat64(),
		number.MinFractionDigits(balanceDigits),
		number.MaxFractionDigits(balanceDigits),
		number.NoSeparator()))
}
