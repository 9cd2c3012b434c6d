package httpx

import (
	"bytes"
	"net/http"
)

// ResponseBuffer records a response so a middleware can inspect it before
// deciding whether to send it.
type ResponseBuffer interface {
	http.ResponseWriter
	// Status is the recorded status code, 200 if only a body was written and
	// 0 if nothing was written at all.
	Status() int
	Body() []byte
	// OK reports a successful response.
	OK() bool
	Flush(w http.ResponseWriter) error
}

type responseBuffer struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func NewResponseBuffer() ResponseBuffer {
	return &responseBuffer{header: http.Header{}}
}

func (resp *responseBuffer) Status() int {
	return resp.status
}

func (resp *responseBuffer) OK() bool {
	return resp.status >= 200 && resp.status < 300
}

func (resp *responseBuffer) Header() http.Header {
	return resp.header
}

func (resp *responseBuffer) Body() []byte {
	if resp.body.Len() == 0 {
		return nil
	}
	return resp.body.Bytes()
}

func (resp *responseBuffer) Write(body []byte) (int, error) {
	if resp.status == 0 {
		resp.status = http.StatusOK
	}
	return resp.body.Write(body)
}

// WriteHeader keeps the first status, as net/http does.
func (resp *responseBuffer) WriteHeader(statusCode int) {
	if resp.status == 0 {
		resp.status = statusCode
	}
}

func (resp *responseBuffer) Flush(w http.ResponseWriter) error {
	header := w.Header()
	for key, value := range resp.header {
		header[key] = value
	}
	if resp.status != 0 {
		w.WriteHeader(resp.status)
	}
	if resp.body.Len() > 0 {
		_, err := w.Write(resp.body.Bytes())
		return err
	}
	return nil
}
