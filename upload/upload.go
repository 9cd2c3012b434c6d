// Package upload stores binary assets and hands back a public URL for them.
package upload

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/mbolis/parish-forms/idgen"
)

// Folders used by the form engine.
const (
	FolderCovers    = "form-covers"
	FolderResponses = "form-responses"
)

var ErrInvalidFolder = errors.New("invalid upload folder")

// Uploader stores a file under a logical folder and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error)
}

// objectKey builds a unique, collision-free key that keeps the original
// file extension.
func objectKey(folder, filename string) (string, error) {
	folder = strings.Trim(folder, "/")
	if folder == "" || strings.Contains(folder, "..") {
		return "", ErrInvalidFolder
	}

	id, err := idgen.WithPrefix("")
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, `\`, "/"))))
	if len(ext) > 8 || strings.ContainsAny(ext, " ?#%") {
		ext = ""
	}
	return folder + "/" + id + ext, nil
}
