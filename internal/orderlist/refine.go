package orderlist

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Refine replaces the customer, table, price and date predicates of f with the
// terms in text, for example
//
//	customer:"ana maria" table:5 min:10 max:40.50 from:2024-01-01 to:2024-01-31
//
// Blank text clears them. Search, status and order type are kept. Dates are
// read in loc.
func (f FilterSpec) Refine(text string, loc *time.Location) (FilterSpec, error) {
	if loc == nil {
		loc = time.Local
	}
	out := f
	out.CustomerName, out.TableName = "", ""
	out.MinPrice, out.MaxPrice = nil, nil
	out.Start, out.End = time.Time{}, time.Time{}

	terms, err := splitTerms(text)
	if err != nil {
		return f, err
	}
	for _, term := range terms {
		key, value, ok := strings.Cut(term, ":")
		if !ok || value == "" {
			return f, fmt.Errorf("expected key:value, got %q", term)
		}
		switch strings.ToLower(key) {
		case "customer":
			out.CustomerName = value
		case "table":
			out.TableName = value
		case "min", "max":
			amount, err := decimal.NewFromString(value)
			if err != nil {
				return f, fmt.Errorf("%s: %q is not an amount", key, value)
			}
			if strings.EqualFold(key, "min") {
				out.MinPrice = &amount
			} else {
				out.MaxPrice = &amount
			}
		case "from", "to":
			day, err := time.ParseInLocation(dateLayout, value, loc)
			if err != nil {
				return f, fmt.Errorf("%s: %q is not a YYYY-MM-DD date", key, value)
			}
			if strings.EqualFold(key, "from") {
				out.Start = day
			} else {
				out.End = day
			}
		default:
			return f, fmt.Errorf("unknown filter %q (use customer, table, min, max, from or to)", key)
		}
	}
	if out.MinPrice != nil && out.MaxPrice != nil && out.MinPrice.GreaterThan(*out.MaxPrice) {
		return f, fmt.Errorf("min %s is above max %s", out.MinPrice, out.MaxPrice)
	}
	if !out.Start.IsZero() && !out.End.IsZero() && out.Start.After(out.End) {
		return f, fmt.Errorf("from %s is after to %s", out.Start.Format(dateLayout), out.End.Format(dateLayout))
	}
	return out, nil
}

// RefineText renders the predicates Refine owns in the syntax Refine reads.
func (f FilterSpec) RefineText() string {
	var terms []string
	if v := strings.TrimSpace(f.CustomerName); v != "" {
		terms = append(terms, "customer:"+quote(v))
	}
	if v := strings.TrimSpace(f.TableName); v != "" {
		terms = append(terms, "table:"+quote(v))
	}
	if f.MinPrice != nil {
		terms = append(terms, "min:"+f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		terms = append(terms, "max:"+f.MaxPrice.String())
	}
	if !f.Start.IsZero() {
		terms = append(terms, "from:"+f.Start.Format(dateLayout))
	}
	if !f.End.IsZero() {
		terms = append(terms, "to:"+f.End.Format(dateLayout))
	}
	return strings.Join(terms, " ")
}

func quote(v string) string {
	if strings.ContainsAny(v, " \t") {
		return `"` + v + `"`
	}
	return v
}

// splitTerms splits on whitespace outside double quotes and drops the quotes.
func splitTerms(text string) ([]string, error) {
	var (
		terms   []string
		current strings.Builder
		quoted  bool
	)
	flush := func() {
		if current.Len() > 0 {
			terms = append(terms, current.String())
			current.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == '"':
			quoted = !quoted
		case !quoted && (r == ' ' || r == '\t'):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote in %q", text)
	}
	flush()
	return terms, nil
}
