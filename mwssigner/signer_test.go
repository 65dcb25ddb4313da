package mwssigner_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/thomasdesr/mwspay/mwssigner"
	"github.com/thomasdesr/mwspay/params"
)

func TestSignatureGolden(t *testing.T) {
	got := mwssigner.Signature("SECRET_KEY", "test signature code")
	if want := "VWty3pyWd3Ol4pw3L7nFQ%2FxI6SXXsV5T2aRdoNPVMg0%3D"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestVerifySignatureRoundTrip(t *testing.T) {
	canonical := "POST\nmws.amazonservices.com\n/OffAmazonPayments/2013-01-01\nAction=GetOrderReferenceDetails"
	sig := mwssigner.Signature("SECRET_KEY", canonical)

	if !mwssigner.VerifySignature("SECRET_KEY", canonical, sig) {
		t.Fatal("expected signature to verify")
	}

	for i := range canonical {
		mutated := []byte(canonical)
		mutated[i] ^= 0x01

		if mwssigner.VerifySignature("SECRET_KEY", string(mutated), sig) {
			t.Fatalf("signature verified after mutating byte %d", i)
		}
	}

	if mwssigner.VerifySignature("OTHER_KEY", canonical, sig) {
		t.Fatal("signature verified under the wrong secret")
	}
}

func TestSign(t *testing.T) {
	signer, err := mwssigner.NewSigner(credentials.NewStaticCredentialsProvider("ACCESS_KEY", "SECRET_KEY", ""))
	if err != nil {
		t.Fatal(err)
	}
	mwssigner.SetNowFunc(signer, func() time.Time {
		return time.Date(2017, 5, 20, 3, 23, 21, 0, time.FixedZone("PDT", -7*60*60)).UTC()
	})

	tree := params.NewTree().
		SetString("Action", "GetOrderReferenceDetails").
		SetString("SellerId", "MERCHANT_ID").
		SetString("AmazonOrderReferenceId", "S01-0000000-0000000")

	req, err := signer.Sign(context.Background(), "mws.amazonservices.com", "/OffAmazonPayments_Sandbox/2013-01-01", tree)
	if err != nil {
		t.Fatal(err)
	}

	wantQuery := "AWSAccessKeyId=ACCESS_KEY" +
		"&Action=GetOrderReferenceDetails" +
		"&AmazonOrderReferenceId=S01-0000000-0000000" +
		"&SellerId=MERCHANT_ID" +
		"&SignatureMethod=HmacSHA256" +
		"&SignatureVersion=2" +
		"&Timestamp=2017-05-20T03%3A23%3A21Z" +
		"&Version=2013-01-01"

	if got := req.Query.Encode(); got != wantQuery {
		t.Fatalf("unexpected query\nwant: %s\n got: %s", wantQuery, got)
	}

	if want := "MPbrjF5zr4%2B37cLgTAJEeRtvWWbAJFHZwFtp8uQ1hrk%3D"; req.Signature != want {
		t.Fatalf("expected signature %q, got %q", want, req.Signature)
	}

	if !strings.HasSuffix(req.Body(), "&Signature="+req.Signature) {
		t.Fatalf("signature must be the last parameter: %s", req.Body())
	}

	if tree.Has("AWSAccessKeyId") {
		t.Fatal("Sign must not modify the caller's tree")
	}
}

func TestSignKeepsCallerTimestamp(t *testing.T) {
	signer, err := mwssigner.NewSigner(credentials.NewStaticCredentialsProvider("ACCESS_KEY", "SECRET_KEY", ""))
	if err != nil {
		t.Fatal(err)
	}

	req, err := signer.Sign(context.Background(), "mws.amazonservices.com", "/OffAmazonPayments/2013-01-01",
		params.NewTree().SetString("Timestamp", "2017-05-20T03:23:21.923Z"))
	if err != nil {
		t.Fatal(err)
	}

	if ts, _ := req.Query.Get("Timestamp"); ts != "2017-05-20T03:23:21.923Z" {
		t.Fatalf("unexpected timestamp %q", ts)
	}
}

func TestSignErrors(t *testing.T) {
	if _, err := mwssigner.NewSigner(nil); err == nil {
		t.Fatal("expected error for nil provider")
	}

	for name, provider := range map[string]aws.CredentialsProvider{
		"empty": credentials.NewStaticCredentialsProvider("", "", ""),
		"failing": aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{}, errors.New("no creds here")
		}),
	} {
		t.Run(name, func(t *testing.T) {
			signer, err := mwssigner.NewSigner(provider)
			if err != nil {
				t.Fatal(err)
			}

			req, err := signer.Sign(context.Background(), "mws.amazonservices.com", "/", params.NewTree())
			if err == nil {
				t.Fatal("expected error")
			}
			if req != nil {
				t.Fatalf("expected nil request, got %v", req)
			}
		})
	}
}
