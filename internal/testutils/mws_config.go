//go:build runmws
// +build runmws

package testutils

import (
	"os"
	"testing"
)

type MWSConfig struct {
	MerchantID string
	AccessKey  string
	SecretKey  string
	Region     string
}

// MWSConfigIfHasCredentials reads sandbox credentials from the environment
// and fails the test when any are missing.
func MWSConfigIfHasCredentials(tb testing.TB) MWSConfig {
	tb.Helper()

	cfg := MWSConfig{
		MerchantID: os.Getenv("MWSPAY_MERCHANT_ID"),
		AccessKey:  os.Getenv("MWSPAY_ACCESS_KEY"),
		SecretKey:  os.Getenv("MWSPAY_SECRET_KEY"),
		Region:     os.Getenv("MWSPAY_REGION"),
	}
	if cfg.Region == "" {
		cfg.Region = "na"
	}

	if cfg.MerchantID == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		tb.Fatal("MWSPAY_MERCHANT_ID, MWSPAY_ACCESS_KEY and MWSPAY_SECRET_KEY must be set")
	}

	return cfg
}
