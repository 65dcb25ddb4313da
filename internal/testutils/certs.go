package testutils

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

var (
	OIDCountry            = asn1.ObjectIdentifier{2, 5, 4, 6}
	OIDLocality           = asn1.ObjectIdentifier{2, 5, 4, 7}
	OIDProvince           = asn1.ObjectIdentifier{2, 5, 4, 8}
	OIDOrganization       = asn1.ObjectIdentifier{2, 5, 4, 10}
	OIDOrganizationalUnit = asn1.ObjectIdentifier{2, 5, 4, 11}
	OIDCommonName         = asn1.ObjectIdentifier{2, 5, 4, 3}
)

// AmazonSubject is the subject of an SNS signing certificate, in the usual
// X.509 order.
func AmazonSubject() []pkix.AttributeTypeAndValue {
	return []pkix.AttributeTypeAndValue{
		{Type: OIDCountry, Value: "US"},
		{Type: OIDProvince, Value: "Washington"},
		{Type: OIDLocality, Value: "Seattle"},
		{Type: OIDOrganization, Value: "Amazon.com, Inc."},
		{Type: OIDOrganizationalUnit, Value: "AWS"},
		{Type: OIDCommonName, Value: "sns.amazonaws.com"},
	}
}

type SigningCert struct {
	Key  *rsa.PrivateKey
	Cert *x509.Certificate
	PEM  []byte
}

// NewSigningCert self-signs an RSA certificate whose subject is exactly
// subject, in the given order.
func NewSigningCert(tb testing.TB, subject []pkix.AttributeTypeAndValue) *SigningCert {
	tb.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("generate key: %v", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		tb.Fatalf("serial number: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: serialNumber,
		// Only ExtraNames is set so the encoded RDN order is ours.
		Subject:   pkix.Name{ExtraNames: subject},
		NotBefore: time.Now(),
		NotAfter:  time.Now().Add(time.Hour * 24),
		KeyUsage:  x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		tb.Fatalf("create certificate: %v", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		tb.Fatalf("parsing the cert we just created: %v", err)
	}

	return &SigningCert{
		Key:  priv,
		Cert: cert,
		PEM:  pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
	}
}
