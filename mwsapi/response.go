package mwsapi

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
)

// Response is an immutable view of one HTTP exchange with MWS.
type Response struct {
	statusCode int
	header     http.Header
	body       []byte

	parseOnce sync.Once
	doc       *etree.Document
	parseErr  error
}

// NewResponse wraps a status, header and an already decoded body.
func NewResponse(statusCode int, header http.Header, body []byte) *Response {
	if header == nil {
		header = http.Header{}
	}
	return &Response{
		statusCode: statusCode,
		header:     header,
		body:       body,
	}
}

// Code is the status code as a decimal string, e.g. "200".
func (r *Response) Code() string {
	return strconv.Itoa(r.statusCode)
}

func (r *Response) StatusCode() int {
	return r.statusCode
}

// Success reports a 2xx status.
func (r *Response) Success() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

// Body returns the raw response body. Callers must not modify it.
func (r *Response) Body() []byte {
	return r.body
}

func (r *Response) Header() http.Header {
	return r.header.Clone()
}

func (r *Response) RequestID() string {
	return r.header.Get(HeaderRequestID)
}

// XML parses the body on first use and returns the document. The parse
// happens once; later calls return the same document or error.
func (r *Response) XML() (*etree.Document, error) {
	r.parseOnce.Do(func() {
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(r.body); err != nil {
			r.parseErr = err
			return
		}
		r.doc = doc
	})
	return r.doc, r.parseErr
}

// Get returns the text of the first child element named child beneath the
// element at rootPath. rootPath is a "/" separated element path from the
// document root, e.g.
// "GetOrderReferenceDetailsResponse/GetOrderReferenceDetailsResult".
//
// A missing field, or a body that isn't XML, reports false.
func (r *Response) Get(rootPath, child string) (string, bool) {
	doc, err := r.XML()
	if err != nil {
		return "", false
	}

	path := "./" + child
	if root := strings.Trim(rootPath, "/"); root != "" {
		path = "./" + root + "/" + child
	}

	el := doc.FindElement(path)
	if el == nil {
		return "", false
	}

	return el.Text(), true
}
