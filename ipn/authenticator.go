package ipn

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aws/smithy-go/logging"
	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/internal/wire"
	"github.com/thomasdesr/mwspay/ipn/topic_verifiers"
)

const maxCertificateBytes = 64 << 10

type Authenticator struct {
	c         *http.Client
	userAgent string

	expectedSubject []SubjectMatcher
	logger          logging.Logger

	// IsValidTopic is consulted once the signature has been verified.
	IsValidTopic topic_verifiers.Verifier
}

type Option func(*Authenticator)

func WithUserAgent(ua string) Option {
	return func(a *Authenticator) {
		a.userAgent = ua
	}
}

// WithExpectedSubject replaces DefaultSubject as the reference the signing
// certificate's subject must match.
func WithExpectedSubject(subject []SubjectMatcher) Option {
	return func(a *Authenticator) {
		a.expectedSubject = subject
	}
}

func WithLogger(l logging.Logger) Option {
	return func(a *Authenticator) {
		a.logger = l
	}
}

// NewAuthenticator returns an Authenticator fetching certificates through tr
// (http.DefaultTransport when nil). A nil validTopics accepts every topic.
func NewAuthenticator(validTopics topic_verifiers.Verifier, tr http.RoundTripper, opts ...Option) *Authenticator {
	if validTopics == nil {
		validTopics = topic_verifiers.Any()
	}

	// Certificates are served directly; a redirect is never followed.
	nonRedirectingClient := &http.Client{
		Transport: tr,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	a := &Authenticator{
		c:               nonRedirectingClient,
		userAgent:       wire.UserAgent("", ""),
		expectedSubject: DefaultSubject(),
		logger:          logging.Nop{},
		IsValidTopic:    validTopics,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Authenticate checks the SNS message type header, parses body and verifies
// it. Any failure is an *AuthenticationError.
func (a *Authenticator) Authenticate(ctx context.Context, header http.Header, body []byte) (*VerifiedNotification, error) {
	if got := header.Get(HeaderMessageType); got != MessageTypeNotification {
		return nil, a.rejected("", &AuthenticationError{
			Stage:    Received,
			Reason:   "unexpected SNS message type",
			Expected: MessageTypeNotification,
			Actual:   got,
		})
	}

	n, err := ParseNotification(body)
	if err != nil {
		return nil, a.rejected("", err)
	}

	a.logger.Logf(logging.Debug, "notification %s: %s", n.MessageID, HeaderValidated)

	return a.Verify(ctx, n)
}

// Verify authenticates a parsed notification whose header has already been
// checked.
func (a *Authenticator) Verify(ctx context.Context, n *UnverifiedNotification) (*VerifiedNotification, error) {
	certURL, err := ValidateCertURL(n.SigningCertURL)
	if err != nil {
		return nil, a.rejected(n.MessageID, err)
	}

	cert, err := a.fetchCertificate(ctx, certURL)
	if err != nil {
		return nil, a.rejected(n.MessageID, &AuthenticationError{
			Stage:  HeaderValidated,
			Reason: "unable to fetch signing certificate",
			URL:    n.SigningCertURL,
			Err:    err,
		})
	}
	a.logger.Logf(logging.Debug, "notification %s: %s", n.MessageID, CertificateFetched)

	if err := ValidateSubject(SubjectOf(cert), a.expectedSubject); err != nil {
		return nil, a.rejected(n.MessageID, err)
	}
	a.logger.Logf(logging.Debug, "notification %s: %s", n.MessageID, SubjectValidated)

	message, err := verifySignature(cert, n)
	if err != nil {
		return nil, a.rejected(n.MessageID, reject(SubjectValidated, "notification signature verification failed", err))
	}
	a.logger.Logf(logging.Debug, "notification %s: %s", n.MessageID, SignatureVerified)

	if ok, err := a.IsValidTopic.Verify(n.TopicArn); err != nil {
		return nil, a.rejected(n.MessageID, reject(SignatureVerified, "unable to verify notification topic", err))
	} else if !ok {
		return nil, a.rejected(n.MessageID, &AuthenticationError{
			Stage:  SignatureVerified,
			Reason: "notification topic is not allowed",
			Actual: n.TopicArn,
		})
	}

	return &VerifiedNotification{
		Type:             n.Type,
		MessageID:        n.MessageID,
		TopicArn:         n.TopicArn,
		Subject:          n.Subject,
		Message:          message,
		Timestamp:        n.Timestamp,
		SignatureVersion: n.SignatureVersion,
		SigningCertURL:   n.SigningCertURL,
		UnsubscribeURL:   n.UnsubscribeURL,
	}, nil
}

func (a *Authenticator) rejected(messageID string, err error) error {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		a.logger.Logf(logging.Warn, "rejecting notification %q after %s: %v", messageID, authErr.Stage, err)
	} else {
		a.logger.Logf(logging.Warn, "rejecting notification %q: %v", messageID, err)
	}
	return err
}

func (a *Authenticator) fetchCertificate(ctx context.Context, u *url.URL) (*x509.Certificate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errorutil.Wrap(err, "creating request")
	}
	wire.SetHeaders(req.Header, a.userAgent)

	resp, err := a.c.Do(req)
	if err != nil {
		return nil, errorutil.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response: %s", resp.Status)
	}

	body, err := wire.ReadBody(resp, maxCertificateBytes)
	if err != nil {
		return nil, errorutil.Wrap(err, "reading certificate")
	}

	block, _ := pem.Decode(body)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("response is not a PEM encoded certificate")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, errorutil.Wrap(err, "parsing certificate")
	}

	return cert, nil
}

// verifySignature checks n's signature against cert and returns the opened
// Message.
func verifySignature(cert *x509.Certificate, n *UnverifiedNotification) (string, error) {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("certificate key is a %T, not RSA", cert.PublicKey)
	}

	sig, err := base64.StdEncoding.DecodeString(n.Signature)
	if err != nil {
		return "", errorutil.Wrap(err, "decoding signature")
	}

	fields, message, err := n.signedFields()
	if err != nil {
		return "", err
	}
	canonical := []byte(CanonicalString(fields))

	var (
		hash   crypto.Hash
		digest []byte
	)
	switch n.SignatureVersion {
	case "1":
		sum := sha1.Sum(canonical)
		hash, digest = crypto.SHA1, sum[:]
	case "2":
		sum := sha256.Sum256(canonical)
		hash, digest = crypto.SHA256, sum[:]
	default:
		return "", fmt.Errorf("unsupported signature version %q", n.SignatureVersion)
	}

	if err := rsa.VerifyPKCS1v15(pub, hash, digest, sig); err != nil {
		return "", err
	}

	return message, nil
}
