// Package mwsapi holds the MWS wire constants and the Response wrapper
// returned by every query call.
package mwsapi

const (
	APIVersion = "2013-01-01"

	productionService = "OffAmazonPayments"
	sandboxService    = "OffAmazonPayments_Sandbox"

	// HeaderRequestID is set by MWS on every response.
	HeaderRequestID = "x-mws-request-id"
)

// ServicePath is the request path for the production or sandbox environment.
func ServicePath(sandbox bool) string {
	if sandbox {
		return "/" + sandboxService + "/" + APIVersion
	}
	return "/" + productionService + "/" + APIVersion
}
