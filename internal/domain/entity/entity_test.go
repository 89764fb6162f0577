package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerSet_FirstAnswerWins(t *testing.T) {
	set := NewAnswerSet(
		Answer{QuestionIdentifier: QuestionGender, Value: "w"},
		Answer{QuestionIdentifier: QuestionPLZ, Value: "97070"},
		Answer{QuestionIdentifier: QuestionGender, Value: "m"},
	)

	assert.Equal(t, "w", set.Lookup(QuestionGender, ""))
	assert.Equal(t, "97070", set.Lookup(QuestionPLZ, "?????"))
	assert.Equal(t, 2, set.Len())
	assert.False(t, set.Add(Answer{QuestionIdentifier: QuestionPLZ, Value: "80331"}))
	assert.Equal(t, "97070", set.Lookup(QuestionPLZ, "?????"))
}

func TestAnswerSet_Defaults(t *testing.T) {
	var empty AnswerSet

	assert.Equal(t, "?????", empty.Lookup(QuestionOrt, "?????"))
	assert.False(t, empty.Has(QuestionAge))
	assert.Equal(t, 0, empty.Len())

	set := NewAnswerSet(Answer{QuestionIdentifier: QuestionOrt, Value: ""})
	assert.True(t, set.Has(QuestionOrt))
	assert.Equal(t, "", set.Lookup(QuestionOrt, "?????"))
}

func TestParseNameParts(t *testing.T) {
	parts, err := ParseNameParts(`{"_scheme": "given_family", "given_name": "Anna", "family_name": "Huber"}`)
	require.NoError(t, err)
	assert.Equal(t, NameParts{FamilyName: "Huber", GivenName: "Anna"}, parts)

	parts, err = ParseNameParts(`{"full_name": "Anna Huber"}`)
	require.NoError(t, err)
	assert.Equal(t, NameParts{}, parts)

	parts, err = ParseNameParts("")
	require.NoError(t, err)
	assert.Equal(t, NameParts{}, parts)

	_, err = ParseNameParts("not json")
	assert.Error(t, err)
}

func TestCents_String(t *testing.T) {
	tests := []struct {
		amount Cents
		want   string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1234, "12.34"},
		{-50, "-0.50"},
		{-12000, "-120.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.amount.String())
	}
}

func TestParseCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Cents
		wantErr bool
	}{
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "12.3", want: 1230},
		{name: "integer", input: "7", want: 700},
		{name: "negative", input: "-4.05", want: -405},
		{name: "numeric padding", input: "19.990000", want: 1999},
		{name: "leading dot", input: ".5", want: 50},
		{name: "too precise", input: "1.234", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
		{name: "empty", input: " ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCents(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInvoice_Derived(t *testing.T) {
	refers := int64(1)
	gross := Cents(-2500)

	cancellation := &Invoice{
		FullInvoiceNo:       "INV-0002",
		InvoiceToName:       "Anna Huber",
		IsCancellation:      true,
		RefersID:            &refers,
		RefersFullInvoiceNo: "INV-0001",
		TotalGross:          &gross,
	}
	assert.Equal(t, "Stornierung von INV-0001", cancellation.CancellationNote())
	assert.Equal(t, "Anna Huber", cancellation.Payer())
	assert.Equal(t, Cents(-2500), cancellation.GrossOrZero())

	regular := &Invoice{FullInvoiceNo: "INV-0003", InvoiceToCompany: "Pfarrei St. Josef", InvoiceToName: "Anna Huber"}
	assert.Equal(t, "", regular.CancellationNote())
	assert.Equal(t, "Pfarrei St. Josef", regular.Payer())
	assert.Equal(t, "0.00", regular.GrossOrZero().String())

	orphan := &Invoice{IsCancellation: true}
	assert.Equal(t, "", orphan.CancellationNote())
}

func TestSumLines(t *testing.T) {
	gross, net := SumLines(nil)
	assert.Nil(t, gross)
	assert.Nil(t, net)

	gross, net = SumLines([]InvoiceLine{
		{GrossValue: 11900, TaxValue: 1900},
		{GrossValue: 5000, TaxValue: 0},
	})
	require.NotNil(t, gross)
	require.NotNil(t, net)
	assert.Equal(t, Cents(16900), *gross)
	assert.Equal(t, Cents(15000), *net)
}

func TestLocalizedString(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		preferred []string
		want      string
	}{
		{"preferred locale", `{"de": "Teilnehmer", "en": "Participant"}`, []string{"de", "en"}, "Teilnehmer"},
		{"empty value skipped", `{"de": "", "en": "Participant"}`, []string{"de", "en"}, "Participant"},
		{"no preference uses first locale", `{"fr": "Animateur", "de-informal": "Betreuer"}`, nil, "Betreuer"},
		{"informal variant matches base language", `{"en": "Participant", "de-informal": "Teilnehmer*in"}`, DefaultLocales, "Teilnehmer*in"},
		{"plain locale beats variant", `{"de-informal": "Du", "de": "Sie"}`, DefaultLocales, "Sie"},
		{"regional locale matches", `{"en": "Participant", "de-AT": "Teilnehmer"}`, []string{"de"}, "Teilnehmer"},
		{"no match uses first locale", `{"fr": "Animateur", "it": "Animatore"}`, DefaultLocales, "Animateur"},
		{"plain string", "Zeltlager", []string{"de"}, "Zeltlager"},
		{"all values empty", `{"de": ""}`, []string{"de"}, ""},
		{"invalid json kept", `{"de": `, []string{"de"}, `{"de": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalizedString(tt.raw, tt.preferred...))
		})
	}
}

func TestEvent_StartDate(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	event := &Event{DateFrom: time.Date(2024, 7, 14, 23, 30, 0, 0, time.UTC)}

	assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), event.StartDate(berlin))
	assert.Equal(t, time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC), event.StartDate(nil))
}
