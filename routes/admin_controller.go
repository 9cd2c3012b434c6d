package routes

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/parish-forms/app"
	"github.com/mbolis/parish-forms/forms"
	"github.com/mbolis/parish-forms/httpx"
	"github.com/mbolis/parish-forms/log"
	"github.com/mbolis/parish-forms/upload"
)

// CreateForm replays a FormSpec through the builder and persists it.
func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := forms.FormSpec{}
		err := render.DecodeJSON(r.Body, &spec)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		draft, err := spec.Draft()
		if err != nil {
			httpx.WriteError(w, r, "create_form.draft", err)
			return
		}

		def, err := app.Forms.CreateForm(r.Context(), draft)
		if err != nil {
			httpx.WriteError(w, r, "create_form", err)
			return
		}

		log.WithFields(log.Fields{"form": def.ID, "fields": len(def.Fields)}).Info("form created")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": def.ID,
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := app.Forms.ListForms(r.Context())
		if err != nil {
			httpx.WriteError(w, r, "list_forms", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"forms": list,
		})
	}
}

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		def, err := app.Forms.GetForm(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "get_form", err)
			return
		}

		render.JSON(w, r, def)
	}
}

type activeRequest struct {
	Active *bool `json:"active"`
}

// SetFormActive opens or closes a form to new responses.
func SetFormActive(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := activeRequest{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil || body.Active == nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		id := chi.URLParam(r, "id")
		err = app.Forms.SetActive(r.Context(), id, *body.Active)
		if err != nil {
			httpx.WriteError(w, r, "set_form_active", err)
			return
		}

		log.WithFields(log.Fields{"form": id, "active": *body.Active}).Info("form toggled")
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteForm removes a form together with all of its responses.
func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := app.Forms.DeleteForm(r.Context(), id)
		if err != nil {
			httpx.WriteError(w, r, "delete_form", err)
			return
		}

		log.WithField("form", id).Info("form deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetFormResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses, err := app.Forms.ListResponses(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "get_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

// ExportFormResponses sends the CSV export as a file download.
func ExportFormResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exp, err := app.Forms.Export(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "export_responses", err)
			return
		}

		h := w.Header()
		h.Set("content-type", exp.ContentType)
		h.Set("content-disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.Filename}))
		h.Set("content-length", strconv.Itoa(len(exp.Content)))
		_, err = w.Write(exp.Content)
		if err != nil {
			log.Warnf("export_responses.write: %s", err)
		}
	}
}

// UploadCover stores a cover image for a form that is still being built.
func UploadCover(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receiveImage(app, w, r, "upload_cover", upload.FolderCovers)
	}
}
