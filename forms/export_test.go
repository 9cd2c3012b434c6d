package forms

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/parish-forms/model"
)

const bom = "\xEF\xBB\xBF"

func nameCityForm() *model.FormDefinition {
	return &model.FormDefinition{
		ID: "frm-1", Title: "Name & City", Active: true, CreatedAt: testNow,
		Fields: []model.FieldDefinition{
			{ID: "f1", Type: model.FieldText, Label: "Name"},
			{ID: "f2", Type: model.FieldText, Label: "City"},
		},
	}
}

func TestExport_MissingKeyBecomesEmptyCell(t *testing.T) {
	e, store, _ := newTestEngine()
	seedForm(t, store, nameCityForm())
	store.responses = []model.FormResponse{
		{ID: "r1", FormID: "frm-1", Data: map[string]string{"f1": "Ana", "f2": "SP"}, CreatedAt: testNow},
		{ID: "r2", FormID: "frm-1", Data: map[string]string{"f1": "Bea"}, CreatedAt: testNow.Add(time.Minute)},
	}

	exp, err := e.Export(context.Background(), "frm-1")
	require.NoError(t, err)
	assert.Equal(t, bom+"Name,City\nAna,SP\nBea,\n", string(exp.Content))
	assert.Equal(t, "name_city_responses.csv", exp.Filename)
	assert.Equal(t, ExportContentType, exp.ContentType)
}

func TestExport_OrdersByCreatedAt(t *testing.T) {
	e, store, _ := newTestEngine()
	seedForm(t, store, nameCityForm())
	store.responses = []model.FormResponse{
		{ID: "late", FormID: "frm-1", Data: map[string]string{"f1": "Late"}, CreatedAt: testNow.Add(time.Hour)},
		{ID: "tie-a", FormID: "frm-1", Data: map[string]string{"f1": "TieA"}, CreatedAt: testNow},
		{ID: "tie-b", FormID: "frm-1", Data: map[string]string{"f1": "TieB"}, CreatedAt: testNow},
		{ID: "other", FormID: "frm-2", Data: map[string]string{"f1": "Other"}, CreatedAt: testNow},
	}

	exp, err := e.Export(context.Background(), "frm-1")
	require.NoError(t, err)
	assert.Equal(t, bom+"Name,City\nTieA,\nTieB,\nLate,\n", string(exp.Content))
}

func TestExport_Deterministic(t *testing.T) {
	e, store, _ := newTestEngine()
	seedForm(t, store, nameCityForm())
	for i, name := range []string{"Ana", "Bea", "Caio", "Davi"} {
		store.responses = append(store.responses, model.FormResponse{
			ID: name, FormID: "frm-1",
			Data:      map[string]string{"f1": name, "f2": "São Paulo", "stale": "x"},
			CreatedAt: testNow.Add(time.Duration(i) * time.Second),
		})
	}

	first, err := e.Export(context.Background(), "frm-1")
	require.NoError(t, err)
	second, err := e.Export(context.Background(), "frm-1")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first.Content, second.Content))
	assert.NotContains(t, string(first.Content), "stale")
}

func TestExport_UsesCurrentFieldOrder(t *testing.T) {
	def := nameCityForm()
	def.Fields[0], def.Fields[1] = def.Fields[1], def.Fields[0]

	var buf bytes.Buffer
	err := WriteCSV(&buf, def, []model.FormResponse{
		{Data: map[string]string{"f1": "Ana", "f2": "SP"}},
	})
	require.NoError(t, err)
	assert.Equal(t, bom+"City,Name\nSP,Ana\n", buf.String())
}

func TestWriteCSV_QuotesSpecialValues(t *testing.T) {
	def := nameCityForm()
	var buf bytes.Buffer
	err := WriteCSV(&buf, def, []model.FormResponse{
		{Data: map[string]string{"f1": `Silva, "Ana"`, "f2": "line1\nline2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, bom+"Name,City\n\"Silva, \"\"Ana\"\"\",\"line1\nline2\"\n", buf.String())
}

func TestWriteCSV_NoResponses(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nameCityForm(), nil))
	assert.Equal(t, bom+"Name,City\n", buf.String())
}

func TestExport_Failures(t *testing.T) {
	e, store, _ := newTestEngine()

	_, err := e.Export(context.Background(), "frm-missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	seedForm(t, store, nameCityForm())
	store.listResponsesErr = &model.PersistenceError{Op: "db.list_responses", Err: errors.New("gone")}
	exp, err := e.Export(context.Background(), "frm-1")
	var perr *model.PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.Nil(t, exp)
}

func TestExportFilename(t *testing.T) {
	tests := map[string]string{
		"RSVP":                        "rsvp_responses.csv",
		"Easter Vigil - RSVP!":        "easter_vigil_rsvp_responses.csv",
		"  Retiro de Carnaval 2025  ": "retiro_de_carnaval_2025_responses.csv",
		"Inscrição":                   "inscri_o_responses.csv",
		"!!!":                         "form_responses.csv",
	}
	for title, want := range tests {
		assert.Equal(t, want, ExportFilename(title), title)
	}
}
