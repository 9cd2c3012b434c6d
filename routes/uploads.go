package routes

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/mbolis/parish-forms/app"
	"github.com/mbolis/parish-forms/httpx"
	"github.com/mbolis/parish-forms/log"
	"github.com/mbolis/parish-forms/upload"
)

var errNotAnImage = errors.New("only image files are accepted")

// storeImage sends one uploaded image to the configured uploader.
func storeImage(app app.App, r *http.Request, folder string, fh *multipart.FileHeader) (string, error) {
	contentType := fh.Header.Get("content-type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", errNotAnImage
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return app.Uploader.Upload(r.Context(), folder, fh.Filename, contentType, f)
}

// parseUpload reads a multipart body capped at the configured size.
func parseUpload(app app.App, w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, app.Upload.MaxBytes)
	return r.ParseMultipartForm(app.Upload.MaxBytes)
}

// receiveImage handles the "file" part of a multipart request and answers
// with the public URL of the stored image.
func receiveImage(app app.App, w http.ResponseWriter, r *http.Request, code, folder string) {
	err := parseUpload(app, w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.LogStatus(w, http.StatusRequestEntityTooLarge, log.DebugLevel, code+".too_large")
			return
		}
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, code+".parse_body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) != 1 {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, code+".file")
		return
	}

	url, err := storeImage(app, r, folder, files[0])
	if err != nil {
		switch {
		case errors.Is(err, errNotAnImage):
			httpx.LogStatus(w, http.StatusUnsupportedMediaType, log.DebugLevel, code+".content_type")
		case errors.Is(err, upload.ErrInvalidFolder):
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, code+".folder")
		default:
			httpx.LogInternalError(w, code+".store", err)
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"url": url,
	})
}
