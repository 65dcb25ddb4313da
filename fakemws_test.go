package mwspay_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	mwspay "github.com/thomasdesr/mwspay"
	"github.com/thomasdesr/mwspay/internal/testutils"
	"github.com/thomasdesr/mwspay/mwssigner"
)

const (
	merchantID = "MERCHANT_ID"
	accessKey  = "ACCESS_KEY"
	secretKey  = "SECRET_KEY"
)

// fakeMWS checks request signatures the way MWS does and answers with the
// next scripted status.
type fakeMWS struct {
	tb     testing.TB
	secret string

	mu       sync.Mutex
	statuses []int
	calls    []url.Values
	bodies   []string
}

func (f *fakeMWS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		f.tb.Error(err)
		return
	}
	body := string(raw)

	f.mu.Lock()
	status := http.StatusOK
	if len(f.statuses) > 0 {
		status, f.statuses = f.statuses[0], f.statuses[1:]
	}
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	idx := strings.LastIndex(body, "&Signature=")
	if idx < 0 {
		writeMWSError(w, http.StatusBadRequest, "MissingParameter")
		return
	}
	unsigned, sig := body[:idx], body[idx+len("&Signature="):]

	canonical := "POST\n" + r.Host + "\n" + r.URL.Path + "\n" + unsigned
	if !mwssigner.VerifySignature(f.secret, canonical, sig) {
		writeMWSError(w, http.StatusForbidden, "SignatureDoesNotMatch")
		return
	}

	pairs := strings.Split(unsigned, "&")
	if !sort.StringsAreSorted(keysOf(pairs)) {
		writeMWSError(w, http.StatusBadRequest, "InvalidParameterValue")
		return
	}

	values, err := url.ParseQuery(body)
	if err != nil {
		writeMWSError(w, http.StatusBadRequest, "InvalidParameterValue")
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, values)
	f.mu.Unlock()

	w.Header().Set("x-mws-request-id", "b3f1d4f5-1c73-4c38-9f1e-000000000000")
	if status != http.StatusOK {
		writeMWSError(w, status, "InternalError")
		return
	}

	action := values.Get("Action")
	fmt.Fprintf(w, `<%[1]sResponse xmlns="http://mws.amazonservices.com/schema/OffAmazonPayments/2013-01-01"><%[1]sResult><Status>GREEN</Status></%[1]sResult></%[1]sResponse>`, action)
}

func keysOf(pairs []string) []string {
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i], _, _ = strings.Cut(p, "=")
	}
	return keys
}

func writeMWSError(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	fmt.Fprintf(w, `<ErrorResponse><Error><Type>Sender</Type><Code>%s</Code></Error></ErrorResponse>`, code)
}

func (f *fakeMWS) lastCall() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func newTestClient(t *testing.T, fake *fakeMWS, opts ...mwspay.Option[mwspay.Client]) *mwspay.Client {
	t.Helper()

	srv := httptest.NewTLSServer(fake)
	t.Cleanup(srv.Close)

	opts = append([]mwspay.Option[mwspay.Client]{
		mwspay.WithCredentials(accessKey, secretKey),
		mwspay.WithSandbox(true),
		mwspay.WithHTTPTransport[mwspay.Client](testutils.ServerTransport(t, srv)),
	}, opts...)

	c, err := mwspay.NewClient(merchantID, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return c
}
