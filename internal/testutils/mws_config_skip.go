//go:build !runmws
// +build !runmws

package testutils

import "testing"

type MWSConfig struct {
	MerchantID string
	AccessKey  string
	SecretKey  string
	Region     string
}

func MWSConfigIfHasCredentials(tb testing.TB) MWSConfig {
	tb.Helper()
	tb.Skip("skipping live MWS tests - use -tags=runmws to enable")
	return MWSConfig{}
}
