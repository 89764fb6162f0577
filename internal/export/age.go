package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"
)

// AgeUnknown marks a position whose age cannot be determined
const AgeUnknown = -1

// BirthdateLayout is the format of "Geburtsdatum" answers
const BirthdateLayout = "2006-01-02"

// ResolveAge returns the attendee's age at eventStart.
//
// A non-negative integer "Alter" answer is used as is. Otherwise the age is
// computed from the "Geburtsdatum" answer. Missing or malformed answers
// resolve to AgeUnknown rather than failing.
func ResolveAge(answers entity.AnswerSet, eventStart time.Time) int {
	if raw := answers.Lookup(entity.QuestionAge, ""); raw != "" {
		if age, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && age >= 0 {
			return age
		}
	}

	if !answers.Has(entity.QuestionBirthdate) {
		return AgeUnknown
	}
	raw := answers.Lookup(entity.QuestionBirthdate, "")
	birthdate, err := time.Parse(BirthdateLayout, strings.TrimSpace(raw))
	if err != nil {
		return AgeUnknown
	}
	return AgeAt(birthdate, eventStart)
}

// AgeAt returns the number of completed years between birthdate and date,
// or AgeUnknown if date lies before birthdate.
func AgeAt(birthdate, date time.Time) int {
	age := date.Year() - birthdate.Year()
	if date.Month() < birthdate.Month() ||
		(date.Month() == birthdate.Month() && date.Day() < birthdate.Day()) {
		age--
	}
	if age < 0 {
		return AgeUnknown
	}
	return age
}

// hasAgeAnswers reports whether answers carry any input ResolveAge looks at
func hasAgeAnswers(answers entity.AnswerSet) bool {
	return answers.Has(entity.QuestionAge) || answers.Has(entity.QuestionBirthdate)
}
