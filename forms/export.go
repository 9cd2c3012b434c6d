package forms

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/mbolis/parish-forms/model"
)

const (
	ExportContentType = "text/csv; charset=utf-8"
	exportSuffix      = "_responses"
)

// utf8BOM lets spreadsheet applications detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var reNoFilename = regexp.MustCompile(`[^a-z0-9]+`)

type Export struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Export builds the CSV of all the responses of a form. The file is built in
// memory and only returned once complete.
func (e *Engine) Export(ctx context.Context, formID string) (*Export, error) {
	def, err := e.Forms.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	responses, err := e.Responses.ListResponses(ctx, formID)
	if err != nil {
		return nil, err
	}

	// stores return oldest first already; a stable sort keeps their tiebreak
	sorted := append([]model.FormResponse(nil), responses...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var buf bytes.Buffer
	if err := WriteCSV(&buf, def, sorted); err != nil {
		return nil, err
	}
	return &Export{
		Filename:    ExportFilename(def.Title),
		ContentType: ExportContentType,
		Content:     buf.Bytes(),
	}, nil
}

// WriteCSV writes a BOM, a header of field labels in the current field
// order, and one row per response. Values missing from a response, such as
// fields added after it was collected, become empty cells. Values holding
// commas, quotes or newlines are quoted.
func WriteCSV(w io.Writer, def *model.FormDefinition, responses []model.FormResponse) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := make([]string, len(def.Fields))
	for i, f := range def.Fields {
		header[i] = f.Label
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(def.Fields))
	for _, r := range responses {
		for i, f := range def.Fields {
			row[i] = r.Data[f.ID]
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportFilename turns a form title into a file name such as
// "easter_vigil_rsvp_responses.csv".
func ExportFilename(title string) string {
	name := reNoFilename.ReplaceAllLiteralString(strings.ToLower(title), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "form"
	}
	return name + exportSuffix + ".csv"
}
