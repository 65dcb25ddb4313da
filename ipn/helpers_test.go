package ipn_test

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/thomasdesr/mwspay/internal/testutils"
	"github.com/thomasdesr/mwspay/ipn"
)

const certURL = "https://sns.us-east-1.amazonaws.com/SimpleNotificationService-0000000000000000000000.pem"

var ipnHeader = http.Header{"X-Amz-Sns-Message-Type": {"Notification"}}

const innerMessage = `{"NotificationType":"NotificationType","SellerId":"SellerId","ReleaseEnvironment":"ReleaseEnvironment","Version":"Version","NotificationData":"NotificationData","Timestamp":"Timestamp"}`

// baseFields mirrors a minimal notification body.
func baseFields() map[string]string {
	return map[string]string{
		"Type":           "Type",
		"MessageId":      "MessageId",
		"TopicArn":       "TopicArn",
		"Message":        innerMessage,
		"Timestamp":      "Timestamp",
		"SigningCertURL": certURL,
		"UnsubscribeURL": "UnsubscribeURL",
	}
}

// signedBody signs fields with key the way SNS does and returns the JSON body.
func signedBody(tb testing.TB, key *rsa.PrivateKey, fields map[string]string, version string) []byte {
	tb.Helper()

	canonical := []byte(ipn.CanonicalString(fields))

	var (
		hash   crypto.Hash
		digest []byte
	)
	switch version {
	case "1":
		sum := sha1.Sum(canonical)
		hash, digest = crypto.SHA1, sum[:]
	default:
		sum := sha256.Sum256(canonical)
		hash, digest = crypto.SHA256, sum[:]
	}

	sig, err := rsa.SignPKCS1v15(rand.Reader, key, hash, digest)
	if err != nil {
		tb.Fatal(err)
	}

	body := make(map[string]string, len(fields)+2)
	for k, v := range fields {
		body[k] = v
	}
	body["Signature"] = base64.StdEncoding.EncodeToString(sig)
	body["SignatureVersion"] = version

	out, err := json.Marshal(body)
	if err != nil {
		tb.Fatal(err)
	}
	return out
}

type certServer struct {
	srv     *httptest.Server
	fetches atomic.Int32
	tr      http.RoundTripper
}

// newCertServer serves pemBytes for every request, whatever host the client
// thinks it is talking to.
func newCertServer(tb testing.TB, pemBytes []byte) *certServer {
	tb.Helper()

	cs := &certServer{}
	cs.srv = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.fetches.Add(1)
		if r.Method != http.MethodGet || r.Header.Get("Accept") != "*/*" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_, _ = w.Write(pemBytes)
	}))
	tb.Cleanup(cs.srv.Close)

	cs.tr = testutils.ServerTransport(tb, cs.srv)
	return cs
}
