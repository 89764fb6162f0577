package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cents is a monetary amount in minor currency units
type Cents int64

// String renders the amount with two decimals, e.g. "12.34" or "-0.50"
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Float64 returns the amount in major units
func (c Cents) Float64() float64 {
	return float64(c) / 100
}

// ParseCents parses a decimal amount such as "12.3", "-4.05" or "7"
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		// Amounts are stored with two decimals; anything beyond is zero padding.
		if strings.Trim(frac[2:], "0") != "" {
			return 0, fmt.Errorf("amount %q has more than two decimals", s)
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return Cents(v), nil
}

// Invoice represents an issued invoice or cancellation
type Invoice struct {
	ID                  int64     `json:"id"`
	FullInvoiceNo       string    `json:"full_invoice_no"`
	Date                time.Time `json:"date"`
	InvoiceToCompany    string    `json:"invoice_to_company"`
	InvoiceToName       string    `json:"invoice_to_name"`
	IsCancellation      bool      `json:"is_cancellation"`
	RefersID            *int64    `json:"refers_id,omitempty"`
	RefersFullInvoiceNo string    `json:"refers_full_invoice_no,omitempty"`
	// TotalGross and TotalNet are nil when the invoice has no lines
	TotalGross *Cents `json:"total_gross,omitempty"`
	TotalNet   *Cents `json:"total_net,omitempty"`
}

// Payer returns the company name if set, the personal name otherwise
func (i *Invoice) Payer() string {
	if i.InvoiceToCompany != "" {
		return i.InvoiceToCompany
	}
	return i.InvoiceToName
}

// GrossOrZero returns the gross total, or zero for an invoice without lines
func (i *Invoice) GrossOrZero() Cents {
	if i.TotalGross == nil {
		return 0
	}
	return *i.TotalGross
}

// CancellationNote describes which invoice this one cancels, or "" for regular invoices
func (i *Invoice) CancellationNote() string {
	if !i.IsCancellation || i.RefersID == nil {
		return ""
	}
	return "Stornierung von " + i.RefersFullInvoiceNo
}

// InvoiceLine is a single line item of an invoice
type InvoiceLine struct {
	ID         int64 `json:"id"`
	InvoiceID  int64 `json:"invoice_id"`
	GrossValue Cents `json:"gross_value"`
	TaxValue   Cents `json:"tax_value"`
}

// Net returns the line value without tax
func (l InvoiceLine) Net() Cents {
	return l.GrossValue - l.TaxValue
}

// SumLines returns gross and net totals of lines, both nil when lines is empty
func SumLines(lines []InvoiceLine) (gross, net *Cents) {
	if len(lines) == 0 {
		return nil, nil
	}
	var g, n Cents
	for _, l := range lines {
		g += l.GrossValue
		n += l.Net()
	}
	return &g, &n
}
