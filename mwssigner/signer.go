// Package mwssigner produces the two signatures MWS clients attach to their
// traffic: the HMAC-SHA256 "SignatureVersion 2" query signature and the
// RSASSA-PSS signature over opaque payloads.
//
// Neither signer logs; both are safe for concurrent use.
package mwssigner

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/params"
)

const (
	SignatureMethod  = "HmacSHA256"
	SignatureVersion = "2"
	DefaultVersion   = "2013-01-01"

	httpMethod = "POST"
)

// Signer turns a parameter tree addressed at host/path into a request body
// that MWS will accept.
type Signer interface {
	Sign(ctx context.Context, host, path string, tree *params.Tree) (*SignedRequest, error)
}

type SigV2Signer struct {
	creds      aws.CredentialsProvider
	apiVersion string

	nowFunc func() time.Time
}

var _ Signer = &SigV2Signer{}

func NewSigner(creds aws.CredentialsProvider) (*SigV2Signer, error) {
	if creds == nil {
		return nil, errors.New("nil credentials provider")
	}

	return &SigV2Signer{
		creds:      creds,
		apiVersion: DefaultVersion,
		nowFunc:    time.Now,
	}, nil
}

// Sign adds the authentication parameters to a copy of tree, flattens it and
// signs the result. The caller's tree is left untouched. A Timestamp already
// present in tree is kept as is.
func (s *SigV2Signer) Sign(ctx context.Context, host, path string, tree *params.Tree) (*SignedRequest, error) {
	creds, err := s.creds.Retrieve(ctx)
	if err != nil {
		return nil, errorutil.Wrap(err, "getting credentials")
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, errors.New("credentials are missing an access key or secret key")
	}

	var t *params.Tree
	if tree != nil {
		t = tree.Clone()
	} else {
		t = params.NewTree()
	}

	t.SetString("AWSAccessKeyId", creds.AccessKeyID).
		SetString("SignatureMethod", SignatureMethod).
		SetString("SignatureVersion", SignatureVersion).
		SetString("Version", s.apiVersion)

	if !t.Has("Timestamp") {
		t.SetString("Timestamp", s.nowFunc().UTC().Format(time.RFC3339))
	}

	q, err := params.Flatten(t)
	if err != nil {
		return nil, errorutil.Wrap(err, "flattening parameters")
	}

	return &SignedRequest{
		Host:      host,
		Path:      path,
		Query:     q,
		Signature: Signature(creds.SecretAccessKey, CanonicalRequest(httpMethod, host, path, q)),
	}, nil
}

// CanonicalRequest is the exact string the SigV2 HMAC is computed over.
func CanonicalRequest(method, host, path string, q params.Query) string {
	return method + "\n" + host + "\n" + path + "\n" + q.Encode()
}

// Signature returns the escaped base64 HMAC-SHA256 of canonical, ready to be
// appended to a query string.
func Signature(secret, canonical string) string {
	return params.Escape(base64.StdEncoding.EncodeToString(mac(secret, canonical)))
}

// VerifySignature reports whether sig is the Signature of canonical under
// secret. The comparison is constant time.
func VerifySignature(secret, canonical, sig string) bool {
	return hmac.Equal([]byte(Signature(secret, canonical)), []byte(sig))
}

func mac(secret, canonical string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(canonical))
	return h.Sum(nil)
}
