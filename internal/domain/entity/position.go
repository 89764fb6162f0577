package entity

import (
	"encoding/json"
	"time"
)

// Question identifiers the exporter reads from a position's answers
const (
	QuestionGender    = "Geschlecht"
	QuestionPLZ       = "PLZ"
	QuestionOrt       = "Ort"
	QuestionAge       = "Alter"
	QuestionBirthdate = "Geburtsdatum"
)

// Position represents one registered attendee within an order
type Position struct {
	ID            int64     `json:"id"`
	EventID       int64     `json:"event_id"`
	PositionID    int       `json:"positionid"`
	OrderCode     string    `json:"order_code"`
	OrderDatetime time.Time `json:"order_datetime"`
	ItemName      string    `json:"item_name"`
	AttendeeName  NameParts `json:"attendee_name_parts"`
	Answers       AnswerSet `json:"-"`
}

// NameParts holds the structured attendee name
type NameParts struct {
	FamilyName string `json:"family_name"`
	GivenName  string `json:"given_name"`
}

// ParseNameParts decodes the JSON name-parts column.
// Empty input yields empty parts; keys other than family/given name are ignored.
func ParseNameParts(raw string) (NameParts, error) {
	var parts NameParts
	if raw == "" {
		return parts, nil
	}
	if err := json.Unmarshal([]byte(raw), &parts); err != nil {
		return NameParts{}, err
	}
	return parts, nil
}

// Answer is a response to a configured question, keyed by the question identifier
type Answer struct {
	QuestionIdentifier string `json:"question_identifier"`
	Value              string `json:"answer"`
}

// AnswerSet maps question identifiers to answer values for one position.
//
// The first answer added for an identifier wins; later answers for the same
// identifier are ignored. Callers that need a stable result must add answers
// in a stable order (the repositories use ascending answer ID).
type AnswerSet struct {
	values map[string]string
}

// NewAnswerSet builds an AnswerSet from answers in the given order
func NewAnswerSet(answers ...Answer) AnswerSet {
	var s AnswerSet
	for _, a := range answers {
		s.Add(a)
	}
	return s
}

// Add records a unless an answer for the same question is already present.
// It reports whether a was recorded.
func (s *AnswerSet) Add(a Answer) bool {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	if _, ok := s.values[a.QuestionIdentifier]; ok {
		return false
	}
	s.values[a.QuestionIdentifier] = a.Value
	return true
}

// Lookup returns the answer for identifier, or def when there is none
func (s AnswerSet) Lookup(identifier, def string) string {
	if v, ok := s.values[identifier]; ok {
		return v
	}
	return def
}

// Has reports whether an answer for identifier exists
func (s AnswerSet) Has(identifier string) bool {
	_, ok := s.values[identifier]
	return ok
}

// Len returns the number of distinct questions answered
func (s AnswerSet) Len() int {
	return len(s.values)
}
