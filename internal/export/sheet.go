package export

// SheetKind identifies one sheet of the export
type SheetKind string

const (
	SheetAEJ    SheetKind = "aej"
	SheetJBM    SheetKind = "jbm"
	SheetTeam   SheetKind = "team"
	SheetBelege SheetKind = "belege"
)

// Cell is a single spreadsheet value: a string, an int age or an entity.Cents amount
type Cell = any

// Row is an ordered sequence of cells
type Row []Cell

// Sheet names a sheet and its display title
type Sheet struct {
	Identifier SheetKind
	Title      string
}

var sheets = []Sheet{
	{Identifier: SheetAEJ, Title: "AEJ"},
	{Identifier: SheetJBM, Title: "JBM"},
	{Identifier: SheetTeam, Title: "Teamer"},
	{Identifier: SheetBelege, Title: "Belegliste"},
}

// Sheets returns the sheets of the export in workbook order
func Sheets() []Sheet {
	out := make([]Sheet, len(sheets))
	copy(out, sheets)
	return out
}

// LookupSheet returns the sheet with the given identifier
func LookupSheet(identifier string) (Sheet, bool) {
	for _, s := range sheets {
		if string(s.Identifier) == identifier {
			return s, true
		}
	}
	return Sheet{}, false
}

// IsPositionSheet reports whether kind lists registration positions
func (k SheetKind) IsPositionSheet() bool {
	return k == SheetAEJ || k == SheetJBM || k == SheetTeam
}

// PositionHeader returns the header row of a positions sheet
func PositionHeader(kind SheetKind) Row {
	header := Row{"Produkt", "Nachname", "Vorname", "w", "m", "d", "PLZ, Ort"}
	switch kind {
	case SheetAEJ:
		header = append(header, "AEJ: 15-<18", "AEJ: 18-<27", "AEJ: >=27")
	case SheetJBM:
		header = append(header, "JBM: <10", "JBM: 10-<14", "JBM: 14-<18", "JBM: 18-<=26")
	case SheetTeam:
		header = append(header, "Alter")
	}
	return header
}

// InvoiceHeader returns the header row of the invoice sheet
func InvoiceHeader() Row {
	return Row{"Belegnr.", "Belegdatum", "Einzahler*in", "Verwendungszweck", "Betrag", "Anmerkung"}
}
