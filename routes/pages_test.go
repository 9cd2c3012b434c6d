package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbolis/parish-forms/forms"
	"github.com/mbolis/parish-forms/model"
)

func TestRenderPage_EveryControl(t *testing.T) {
	widgets := map[model.FieldType]string{
		model.FieldText:           `<input type="text" id="f"`,
		model.FieldMultilineText:  `<textarea id="f"`,
		model.FieldSingleSelect:   `<select id="f"`,
		model.FieldDate:           `<input type="date" id="f"`,
		model.FieldImageReference: `<input type="file" id="f"`,
	}
	for _, typ := range model.FieldTypes {
		t.Run(string(typ), func(t *testing.T) {
			f := model.FieldDefinition{ID: "f", Type: typ, Label: "Field", Options: []string{"A"}}
			v, err := f.Variant()
			assert.NoError(t, err)

			w := httptest.NewRecorder()
			renderPage(w, http.StatusOK, "form.html", formPage{
				Form:   &model.FormDefinition{Title: "T"},
				Fields: []forms.RenderedField{{FieldDefinition: f, Control: v.Control()}},
			})
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), widgets[typ])
		})
	}
}

func TestRenderPage_UnknownControl(t *testing.T) {
	w := httptest.NewRecorder()
	renderPage(w, http.StatusOK, "form.html", formPage{
		Form: &model.FormDefinition{Title: "T"},
		Fields: []forms.RenderedField{{
			FieldDefinition: model.FieldDefinition{ID: "f", Label: "Field"},
			Control:         "checkbox",
		}},
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "<form")
}
