// Package mwspay is a client for the Amazon Pay MWS query API and a verifier
// for the instant payment notifications Amazon Pay sends back.
//
// Calls are built as params.Tree values, signed with the merchant's MWS keys
// and POSTed to the regional endpoint; 500 and 503 responses are retried with
// backoff.
package mwspay

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go/logging"
	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/internal/wire"
	"github.com/thomasdesr/mwspay/mwsapi"
	"github.com/thomasdesr/mwspay/mwssigner"
	"github.com/thomasdesr/mwspay/params"
	"github.com/thomasdesr/mwspay/transport"
)

var (
	ErrInvalidRegion  = errors.New("invalid region")
	ErrInvalidSubject = errors.New("invalid certificate subject")
	ErrNoPrivateKey   = errors.New("no private key configured")
)

type Client struct {
	merchantID string
	region     mwsapi.Region
	sandbox    bool

	Signer        mwssigner.Signer
	PayloadSigner *mwssigner.PayloadSigner

	roundTripper  http.RoundTripper
	userAgent     string
	logger        logging.Logger
	transportOpts []transport.Option

	transport *transport.Transport
}

// NewClient returns a Client for merchantID (the SellerId). Without
// WithCredentials or WithAWSConfig the keys come from the default AWS
// credential chain.
func NewClient(merchantID string, opts ...Option[Client]) (*Client, error) {
	if merchantID == "" {
		return nil, errors.New("merchant id is required")
	}

	c := &Client{
		merchantID: merchantID,
		region:     mwsapi.Region_NA,
		userAgent:  wire.UserAgent("", ""),
		logger:     logging.Nop{},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errorutil.Wrap(err, "failed to apply client option")
		}
	}

	// Fallback to defaults if not set
	if c.Signer == nil {
		config, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, errorutil.Wrap(err, "failed to load default aws config")
		}

		if err := WithAWSConfig(&config)(c); err != nil {
			return nil, errorutil.Wrap(err, "failed to create signer from default config")
		}
	}

	tr, err := transport.New(append([]transport.Option{
		transport.WithRoundTripper(c.roundTripper),
		transport.WithUserAgent(c.userAgent),
		transport.WithLogger(c.logger),
	}, c.transportOpts...)...)
	if err != nil {
		return nil, errorutil.Wrap(err, "failed to create transport")
	}
	c.transport = tr

	return c, nil
}

func (c *Client) MerchantID() string {
	return c.merchantID
}

func (c *Client) Region() mwsapi.Region {
	return c.region
}

func (c *Client) Endpoint() string {
	return c.region.Endpoint()
}

func (c *Client) Path() string {
	return mwsapi.ServicePath(c.sandbox)
}

// NewTree starts the parameters of a call made on behalf of the merchant,
// i.e. with SellerId set.
func (c *Client) NewTree() *params.Tree {
	return params.NewTree().SetString("SellerId", c.merchantID)
}

// Call signs tree as the named action and sends it. tree is not modified.
//
// A non-2xx, non-retryable response is returned with Success() false and no
// error. See transport.Transport.Post for the retry behaviour.
func (c *Client) Call(ctx context.Context, action string, tree *params.Tree) (*mwsapi.Response, error) {
	if action == "" {
		return nil, errors.New("action is required")
	}

	t := params.NewTree()
	if tree != nil {
		t = tree.Clone()
	}
	t.SetString("Action", action)

	req, err := c.Signer.Sign(ctx, c.Endpoint(), c.Path(), t)
	if err != nil {
		return nil, errorutil.Wrapf(err, "failed to sign %s", action)
	}

	return c.transport.Post(ctx, req.Host, req.Path, req.Body())
}

// SignPayload signs payload with the private key configured by
// WithPrivateKey. See mwssigner.PayloadSigner.
func (c *Client) SignPayload(payload any) (string, error) {
	if c.PayloadSigner == nil {
		return "", ErrNoPrivateKey
	}
	return c.PayloadSigner.SignPayload(payload)
}
