package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/parish-forms/log"
	"github.com/mbolis/parish-forms/model"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// ErrorBody is the JSON shape of every API error.
type ErrorBody struct {
	Error   string          `json:"error"`
	Message string          `json:"message,omitempty"`
	Fields  []FieldErrorDTO `json:"fields,omitempty"`
	Missing []string        `json:"missing,omitempty"`
}

type FieldErrorDTO struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// Status maps a domain error to its HTTP status and a short error code.
func Status(err error) (int, string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "invalid"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrInactive):
		return http.StatusGone, "inactive"
	case errors.Is(err, model.ErrTitleRequired),
		errors.Is(err, model.ErrInvalidSchema),
		errors.Is(err, model.ErrUnknownFieldType):
		return http.StatusBadRequest, "invalid_schema"
	}
	return http.StatusInternalServerError, "internal"
}

// WriteError logs err under code and sends it as a JSON error. Internal
// failures are logged at error level and never leak their message.
func WriteError(w http.ResponseWriter, r *http.Request, code string, err error) {
	status, kind := Status(err)
	body := ErrorBody{Error: kind}

	switch status {
	case http.StatusInternalServerError:
		log.Errorf("%s: %s", code, err)
	case http.StatusUnprocessableEntity:
		log.Debugf("%s: %s", code, err)
		var verr *model.ValidationError
		errors.As(err, &verr)
		for _, fe := range verr.Fields() {
			body.Fields = append(body.Fields, FieldErrorDTO{
				ID:     fe.FieldID,
				Label:  fe.Label,
				Reason: fe.Reason.Error(),
			})
		}
		body.Missing = verr.MissingLabels()
	default:
		log.Debugf("%s: %s", code, err)
		body.Message = err.Error()
	}

	render.Status(r, status)
	render.JSON(w, r, body)
}
