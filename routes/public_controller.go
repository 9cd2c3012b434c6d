package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/parish-forms/app"
	"github.com/mbolis/parish-forms/forms"
	"github.com/mbolis/parish-forms/httpx"
	"github.com/mbolis/parish-forms/log"
	"github.com/mbolis/parish-forms/model"
	"github.com/mbolis/parish-forms/upload"
)

// publicForm is what a visitor gets to see of a form.
type publicForm struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	CoverImage  *string       `json:"coverImage"`
	Fields      []publicField `json:"fields"`
}

type publicField struct {
	ID       string          `json:"id"`
	Type     model.FieldType `json:"type"`
	Control  model.Control   `json:"control"`
	Label    string          `json:"label"`
	Required bool            `json:"required"`
	Options  []string        `json:"options,omitempty"`
}

func newPublicForm(s *forms.Session) publicForm {
	f := publicForm{
		ID:          s.Form.ID,
		Title:       s.Form.Title,
		Description: s.Form.Description,
		CoverImage:  s.Form.CoverImage,
		Fields:      []publicField{},
	}
	for _, rf := range s.Fields() {
		f.Fields = append(f.Fields, publicField{
			ID:       rf.ID,
			Type:     rf.Type,
			Control:  rf.Control,
			Label:    rf.Label,
			Required: rf.Required,
			Options:  rf.Options,
		})
	}
	return f
}

func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := app.Forms.Open(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "public_get_form", err)
			return
		}

		render.JSON(w, r, newPublicForm(s))
	}
}

type responseRequest struct {
	Data map[string]string `json:"data"`
}

// PublicSubmitResponse validates and stores one response. Values for ids
// that are not fields of the form are dropped.
func PublicSubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := responseRequest{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		s, err := app.Forms.Open(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "submit_response.open", err)
			return
		}
		for id, value := range body.Data {
			s.Set(id, value)
		}

		resp, err := app.Forms.Submit(r.Context(), s)
		if err != nil {
			httpx.WriteError(w, r, "submit_response", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": resp.ID,
		})
	}
}

// PublicUploadImage stores an image for an image-reference field of an open
// form. The returned URL is then sent as the field value.
func PublicUploadImage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		active, err := app.Forms.Forms.FormStatus(r.Context(), id)
		if err == nil && !active {
			err = model.ErrInactive
		}
		if err != nil {
			httpx.WriteError(w, r, "public_upload.status", err)
			return
		}

		receiveImage(app, w, r, "public_upload", upload.FolderResponses+"/"+id)
	}
}

// formPage is the data of the form.html template.
type formPage struct {
	Form   *model.FormDefinition
	Fields []forms.RenderedField
	Error  string
}

// statePage is the data of the state.html template.
type statePage struct {
	Title   string
	Heading string
	Message string
}

// PublicFormPage renders the form as a plain HTML page.
func PublicFormPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := app.Forms.Open(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			renderTerminal(w, s, "form_page", err)
			return
		}

		renderPage(w, http.StatusOK, "form.html", formPage{Form: s.Form, Fields: s.Fields()})
	}
}

// PublicSubmitFormPage handles the post of the HTML form. Image fields take
// either a file, which is uploaded first, or a URL typed in by the visitor.
func PublicSubmitFormPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := app.Forms.Open(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			renderTerminal(w, s, "form_page.submit", err)
			return
		}

		err = parseUpload(app, w, r)
		if errors.Is(err, http.ErrNotMultipart) {
			err = r.ParseForm()
		}
		if err != nil {
			log.Debugf("form_page.parse_body: %s", err)
			renderPage(w, http.StatusBadRequest, "form.html", formPage{
				Form:   s.Form,
				Fields: s.Fields(),
				Error:  "The form could not be read. Please try again.",
			})
			return
		}
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}

		uploadErr := ""
		for _, f := range s.Form.Fields {
			s.Set(f.ID, r.PostFormValue(f.ID))
			if f.Type != model.FieldImageReference || r.MultipartForm == nil {
				continue
			}
			files := r.MultipartForm.File[f.ID+"_file"]
			if len(files) == 0 || files[0].Size == 0 {
				continue
			}
			url, err := storeImage(app, r, upload.FolderResponses+"/"+s.Form.ID, files[0])
			if err != nil {
				log.Warnf("form_page.upload: %s", err)
				uploadErr = "The image could not be uploaded."
				continue
			}
			s.Set(f.ID, url)
		}

		_, err = app.Forms.Submit(r.Context(), s)
		if err == nil {
			renderPage(w, http.StatusOK, "state.html", statePage{
				Title:   s.Form.Title,
				Heading: "Thank you!",
				Message: "Your response has been recorded.",
			})
			return
		}
		if forms.IsTerminal(err) {
			renderTerminal(w, s, "form_page.submit", err)
			return
		}

		page := formPage{Form: s.Form, Fields: s.Fields(), Error: uploadErr}
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			log.Debugf("form_page.submit: %s", err)
			if page.Error == "" {
				page.Error = "Please check the highlighted fields."
			}
			renderPage(w, http.StatusUnprocessableEntity, "form.html", page)
			return
		}

		log.Errorf("form_page.submit: %s", err)
		page.Error = "Your response could not be saved. Please try again."
		renderPage(w, http.StatusInternalServerError, "form.html", page)
	}
}

// renderTerminal shows the page for a form that cannot take responses.
func renderTerminal(w http.ResponseWriter, s *forms.Session, code string, err error) {
	switch {
	case errors.Is(err, model.ErrInactive):
		log.Debugf("%s: %s", code, err)
		title := ""
		if s != nil {
			title = s.Form.Title
		}
		renderPage(w, http.StatusGone, "state.html", statePage{
			Title:   title,
			Heading: "This form is closed",
			Message: "It is no longer accepting responses.",
		})
	case errors.Is(err, model.ErrNotFound):
		log.Debugf("%s: %s", code, err)
		renderPage(w, http.StatusNotFound, "state.html", statePage{
			Heading: "Form not found",
			Message: "The form you are looking for does not exist.",
		})
	default:
		httpx.LogInternalError(w, code, err)
	}
}
