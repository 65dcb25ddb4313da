// Package wire holds the HTTP conventions shared by every outbound request
// this module makes: MWS query calls and SNS certificate fetches.
package wire

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"

	"github.com/thomasdesr/mwspay/internal/errorutil"
)

const (
	Product = "mwspay"
	Version = "1.0.0"

	Accept         = "*/*"
	AcceptEncoding = "gzip;q=1.0,deflate;q=0.6,identity;q=0.3"
	FormEncoded    = "application/x-www-form-urlencoded"
)

// UserAgent renders "mwspay/<version>; (<app>/<appver>; <go>; <os>/<arch>)".
// Empty application details are left out.
func UserAgent(app, appVersion string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s; (", Product, Version)
	if app != "" {
		b.WriteString(app)
		if appVersion != "" {
			b.WriteString("/" + appVersion)
		}
		b.WriteString("; ")
	}
	fmt.Fprintf(&b, "%s; %s/%s)", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return b.String()
}

// SetHeaders applies the Accept, Accept-Encoding and User-Agent headers.
func SetHeaders(h http.Header, userAgent string) {
	h.Set("Accept", Accept)
	h.Set("Accept-Encoding", AcceptEncoding)
	h.Set("User-Agent", userAgent)
}

// ReadBody reads at most limit bytes of resp's body, undoing any gzip or
// deflate Content-Encoding. A body longer than limit is an error.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	raw, err := readLimited(resp.Body, limit)
	if err != nil {
		return nil, err
	}

	var r io.ReadCloser
	switch enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))); enc {
	case "", "identity":
		return raw, nil
	case "gzip", "x-gzip":
		r, err = gzip.NewReader(bytes.NewReader(raw))
	case "deflate":
		r, err = zlib.NewReader(bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", enc)
	}
	if err != nil {
		return nil, errorutil.Wrap(err, "opening encoded body")
	}
	defer r.Close()

	body, err := readLimited(r, limit)
	if err != nil {
		return nil, errorutil.Wrap(err, "decoding body")
	}
	return body, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("body exceeds %d bytes", limit)
	}
	return body, nil
}
