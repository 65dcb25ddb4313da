package mwspay

import (
	"crypto/rsa"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/smithy-go/logging"
	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/internal/wire"
	"github.com/thomasdesr/mwspay/ipn"
	"github.com/thomasdesr/mwspay/mwsapi"
	"github.com/thomasdesr/mwspay/mwssigner"
	"github.com/thomasdesr/mwspay/transport"
)

type Option[T any] func(opt *T) error

// WithLogger sets where retries and rejected notifications are logged.
func WithLogger[T Client | NotificationVerifier](l logging.Logger) Option[T] {
	return func(opt *T) error {
		switch v := any(opt).(type) {
		case *Client:
			v.logger = l
		case *NotificationVerifier:
			v.logger = l
		default:
			panic("unsupported type, generics have failed somehow?")
		}
		return nil
	}
}

// WithHTTPTransport sets the RoundTripper used for MWS calls or certificate
// fetches.
func WithHTTPTransport[T Client | NotificationVerifier](rt http.RoundTripper) Option[T] {
	return func(opt *T) error {
		switch v := any(opt).(type) {
		case *Client:
			v.roundTripper = rt
		case *NotificationVerifier:
			v.roundTripper = rt
		default:
			panic("unsupported type, generics have failed somehow?")
		}
		return nil
	}
}

// WithApplication names the integrating application in the User-Agent.
func WithApplication[T Client | NotificationVerifier](name, version string) Option[T] {
	return func(opt *T) error {
		ua := wire.UserAgent(name, version)
		switch v := any(opt).(type) {
		case *Client:
			v.userAgent = ua
		case *NotificationVerifier:
			v.userAgent = ua
		default:
			panic("unsupported type, generics have failed somehow?")
		}
		return nil
	}
}

// WithAWSConfig takes the MWS access key and secret key from config's
// credentials provider.
func WithAWSConfig(config *aws.Config) Option[Client] {
	return func(c *Client) error {
		signer, err := mwssigner.NewSigner(config.Credentials)
		if err != nil {
			return errorutil.Wrap(err, "failed to create signer from config")
		}
		c.Signer = signer
		return nil
	}
}

// WithCredentials uses a fixed MWS access key and secret key.
func WithCredentials(accessKey, secretKey string) Option[Client] {
	return func(c *Client) error {
		signer, err := mwssigner.NewSigner(credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""))
		if err != nil {
			return errorutil.Wrap(err, "failed to create signer")
		}
		c.Signer = signer
		return nil
	}
}

// WithRegion selects the MWS endpoint: na, eu or jp (us, uk and de are
// accepted as aliases).
func WithRegion(name string) Option[Client] {
	return func(c *Client) error {
		region := mwsapi.ToRegion(name)
		if !region.IsValid() {
			return errorutil.Wrapf(ErrInvalidRegion, "%q", name)
		}
		c.region = region
		return nil
	}
}

func WithSandbox(sandbox bool) Option[Client] {
	return func(c *Client) error {
		c.sandbox = sandbox
		return nil
	}
}

// WithPrivateKey enables SignPayload.
func WithPrivateKey(key *rsa.PrivateKey) Option[Client] {
	return func(c *Client) error {
		ps, err := mwssigner.NewPayloadSigner(key)
		if err != nil {
			return err
		}
		c.PayloadSigner = ps
		return nil
	}
}

// WithPrivateKeyPEM is WithPrivateKey for a PEM encoded PKCS#1 or PKCS#8 key.
func WithPrivateKeyPEM(pemBytes []byte) Option[Client] {
	return func(c *Client) error {
		key, err := mwssigner.ParsePrivateKeyPEM(pemBytes)
		if err != nil {
			return errorutil.Wrap(err, "failed to load private key")
		}
		return WithPrivateKey(key)(c)
	}
}

// WithMaxRetries sets how often a 500 or 503 is retried, at most
// transport.MaxRetryCeiling.
func WithMaxRetries(n int) Option[Client] {
	return func(c *Client) error {
		c.transportOpts = append(c.transportOpts, transport.WithMaxRetries(n))
		return nil
	}
}

// WithObserver reports every MWS request attempt to o.
func WithObserver(o transport.Observer) Option[Client] {
	return func(c *Client) error {
		c.transportOpts = append(c.transportOpts, transport.WithObserver(o))
		return nil
	}
}

// WithExpectedSubject overrides the certificate subject notifications must
// be signed under.
func WithExpectedSubject(subject []ipn.SubjectMatcher) Option[NotificationVerifier] {
	return func(v *NotificationVerifier) error {
		if len(subject) == 0 {
			return errorutil.Wrap(ErrInvalidSubject, "empty subject")
		}
		v.expectedSubject = subject
		return nil
	}
}
