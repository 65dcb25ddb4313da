package mwssigner

import (
	"github.com/thomasdesr/mwspay/params"
)

// SignedRequest is a fully signed query call. Query holds every parameter
// except the signature, which is already escaped.
type SignedRequest struct {
	Host string
	Path string

	Query     params.Query
	Signature string
}

// Body is the form-encoded POST body, with Signature last.
func (r *SignedRequest) Body() string {
	return r.Query.Encode() + "&Signature=" + r.Signature
}
