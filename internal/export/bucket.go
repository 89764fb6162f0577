package export

import "github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"

// Cell markers
const (
	Marked  = "X"
	Unknown = "?"
	Empty   = ""
)

// DefaultPLZOrt replaces a missing postal code or town
const DefaultPLZOrt = "?????"

type bracket struct {
	min, max         int
	minOpen, maxOpen bool
}

func (b bracket) contains(age int) bool {
	if age < b.min || (b.minOpen && age == b.min) {
		return false
	}
	if b.max < 0 {
		return true
	}
	return age < b.max || (!b.maxOpen && age == b.max)
}

// noUpper marks a bracket without upper bound
const noUpper = -1

var ageBrackets = map[SheetKind][]bracket{
	SheetAEJ: {
		{min: 15, max: 18, maxOpen: true},
		{min: 18, max: 27, maxOpen: true},
		{min: 27, max: noUpper},
	},
	SheetJBM: {
		{min: 0, max: 10, minOpen: true, maxOpen: true},
		{min: 10, max: 14, maxOpen: true},
		{min: 14, max: 18, maxOpen: true},
		{min: 18, max: 26},
	},
}

// BucketGender marks the w/m/d columns for a raw "Geschlecht" answer.
// An empty answer is unknown and marks every column with "?".
func BucketGender(raw string) []Cell {
	cols := make([]Cell, 0, 3)
	for _, g := range []string{"w", "m", "d"} {
		switch {
		case raw == "":
			cols = append(cols, Unknown)
		case raw == g:
			cols = append(cols, Marked)
		default:
			cols = append(cols, Empty)
		}
	}
	return cols
}

// BucketPLZOrt joins postal code and town into one column
func BucketPLZOrt(plz, ort string) Cell {
	return plz + " " + ort
}

// BucketAge renders the age columns of a positions sheet.
//
// The AEJ and JBM sheets mark the matching bracket with "X", or every
// bracket with "?" when the age is unknown. The team sheet shows the age
// itself. Other kinds have no age columns.
func BucketAge(age int, kind SheetKind) []Cell {
	if kind == SheetTeam {
		if age > 0 {
			return []Cell{age}
		}
		return []Cell{Unknown}
	}

	brackets, ok := ageBrackets[kind]
	if !ok {
		return nil
	}
	cols := make([]Cell, len(brackets))
	for i, b := range brackets {
		switch {
		case age < 0:
			cols[i] = Unknown
		case b.contains(age):
			cols[i] = Marked
		default:
			cols[i] = Empty
		}
	}
	return cols
}

// positionRow builds the data row for one position
func positionRow(p *entity.Position, age int, kind SheetKind) Row {
	row := make(Row, 0, 12)
	row = append(row, p.ItemName, p.AttendeeName.FamilyName, p.AttendeeName.GivenName)
	row = append(row, BucketGender(p.Answers.Lookup(entity.QuestionGender, ""))...)
	row = append(row, BucketPLZOrt(
		p.Answers.Lookup(entity.QuestionPLZ, DefaultPLZOrt),
		p.Answers.Lookup(entity.QuestionOrt, DefaultPLZOrt),
	))
	row = append(row, BucketAge(age, kind)...)
	return row
}
