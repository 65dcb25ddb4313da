package mwspay

import (
	"context"

	"github.com/thomasdesr/mwspay/mwsapi"
	"github.com/thomasdesr/mwspay/params"
)

// GetServiceStatus reports the operational status of the Off-Amazon Payments
// API section.
func (c *Client) GetServiceStatus(ctx context.Context) (*mwsapi.Response, error) {
	return c.Call(ctx, "GetServiceStatus", nil)
}

// GetOrderReferenceDetails returns the details of an order reference. An
// empty addressConsentToken is left out of the request.
func (c *Client) GetOrderReferenceDetails(ctx context.Context, orderReferenceID, addressConsentToken string) (*mwsapi.Response, error) {
	t := c.NewTree().
		SetString("AmazonOrderReferenceId", orderReferenceID).
		Set("AccessToken", params.OptionalString(addressConsentToken))

	return c.Call(ctx, "GetOrderReferenceDetails", t)
}
