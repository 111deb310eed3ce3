package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// InfoColor names the palette entry used for the info line.
type InfoColor string

const (
	InfoColorRegular InfoColor = "gray"
	InfoColorFailure InfoColor = "red"
)

const (
	// ValuePlaceholder is shown until a balance has been fetched once.
	ValuePlaceholder = "--"
	// DisplayCurrency is the ISO code balances are formatted in.
	DisplayCurrency = money.USD
	// RedactedValueAlpha keeps the value label laid out but invisible.
	RedactedValueAlpha = 0.0001
)

// DateFormatter renders the observation time in the info line.
type DateFormatter func(time.Time) string

// RelativeDateFormatter renders short en-US dates with a medium time,
// replacing the date with Today/Yesterday/Tomorrow relative to now().
func RelativeDateFormatter(now func() time.Time) DateFormatter {
	return func(t time.Time) string {
		clock := t.Format("3:04:05 PM")
		ref := now().In(t.Location())

		switch {
		case sameDay(t, ref):
			return "Today, " + clock
		case sameDay(t, ref.AddDate(0, 0, -1)):
			return "Yesterday, " + clock
		case sameDay(t, ref.AddDate(0, 0, 1)):
			return "Tomorrow, " + clock
		default:
			return t.Format("1/2/06") + ", " + clock
		}
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormattedBalance renders the last balance in DisplayCurrency, or
// ValuePlaceholder when nothing was fetched yet.
func (s BalanceState) FormattedBalance() string {
	if s.LastResponse == nil {
		return ValuePlaceholder
	}
	return FormatAmount(s.LastResponse.Balance, DisplayCurrency)
}

// FormatAmount formats a major-unit amount using the currency's fraction
// digits, rounding half to even. Non-finite amounts render as ValuePlaceholder.
func FormatAmount(amount float64, currency string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ValuePlaceholder
	}
	cur := money.GetCurrency(currency)
	if cur == nil {
		return decimal.NewFromFloat(amount).StringFixed(2) + " " + currency
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).RoundBank(0)
	if minor.BigInt().IsInt64() {
		return cur.Formatter().Format(minor.IntPart())
	}
	return formatMinorUnits(minor, cur.Formatter())
}

// formatMinorUnits lays out minor units that do not fit in an int64 the same
// way money.Formatter does.
func formatMinorUnits(minor decimal.Decimal, f *money.Formatter) string {
	digits := minor.Abs().BigInt().String()
	if len(digits) <= f.Fraction {
		digits = strings.Repeat("0", f.Fraction-len(digits)+1) + digits
	}

	whole, frac := digits[:len(digits)-f.Fraction], digits[len(digits)-f.Fraction:]
	if f.Thousand != "" {
		for i := len(whole) - 3; i > 0; i -= 3 {
			whole = whole[:i] + f.Thousand + whole[i:]
		}
	}

	out := whole
	if f.Fraction > 0 {
		out += f.Decimal + frac
	}
	out = strings.Replace(f.Template, "1", out, 1)
	out = strings.Replace(out, "$", f.Grapheme, 1)
	if minor.IsNegative() {
		out = "-" + out
	}
	return out
}

// InfoText is the status line under the balance.
func (s BalanceState) InfoText(formatDate DateFormatter) string {
	var parts []string

	if s.DidFail {
		parts = append(parts, "Failed to update.")
	} else if s.IsRefreshing {
		parts = append(parts, "Loading...")
	}

	if s.LastResponse != nil {
		parts = append(parts, fmt.Sprintf("Last update: %s.", formatDate(s.LastResponse.ObservedAt)))
	}

	return strings.Join(parts, " ")
}

func (s BalanceState) InfoColor() InfoColor {
	if s.DidFail {
		return InfoColorFailure
	}
	return InfoColorRegular
}

// ShowsActivity reports whether a progress indicator should be animating.
func (s BalanceState) ShowsActivity() bool { return s.IsRefreshing }

// RefreshAvailable reports whether the refresh affordance is offered.
func (s BalanceState) RefreshAvailable() bool { return !s.IsRefreshing }

func (s BalanceState) ValueAlpha() float64 {
	if s.IsRedacted {
		return RedactedValueAlpha
	}
	return 1
}

func (s BalanceState) OverlayVisible() bool { return s.IsRedacted }
