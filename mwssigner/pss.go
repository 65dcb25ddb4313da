package mwssigner

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/thomasdesr/mwspay/internal/errorutil"
)

// PayloadPrefix is prepended, with a newline, to every payload before it is
// signed.
const PayloadPrefix = "AMZN-PAY-RSASSA-PSS"

var pssOptions = &rsa.PSSOptions{
	SaltLength: 20,
	Hash:       crypto.SHA256,
}

type PayloadSigner struct {
	key *rsa.PrivateKey
}

func NewPayloadSigner(key *rsa.PrivateKey) (*PayloadSigner, error) {
	if key == nil {
		return nil, errors.New("nil private key")
	}
	return &PayloadSigner{key: key}, nil
}

// SignPayload signs payload with RSASSA-PSS (SHA-256, MGF1-SHA-256, 20 byte
// salt) and returns the standard base64 encoding of the signature.
//
// A string, []byte or json.RawMessage is signed as is. Anything else is first
// encoded as compact JSON, so a struct and its JSON text sign the same bytes.
func (s *PayloadSigner) SignPayload(payload any) (string, error) {
	data, err := PayloadBytes(payload)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256(prefixed(data))

	sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], pssOptions)
	if err != nil {
		return "", errorutil.Wrap(err, "pss signing")
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

func (s *PayloadSigner) Public() *rsa.PublicKey {
	return &s.key.PublicKey
}

// VerifyPayload checks a SignPayload signature. A bad signature is reported
// as false, never as an error; the error is reserved for payloads that
// cannot be encoded.
func VerifyPayload(pub *rsa.PublicKey, payload any, sig string) (bool, error) {
	data, err := PayloadBytes(payload)
	if err != nil {
		return false, err
	}

	raw, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false, nil
	}

	digest := sha256.Sum256(prefixed(data))

	return rsa.VerifyPSS(pub, crypto.SHA256, digest[:], raw, pssOptions) == nil, nil
}

// PayloadBytes returns the bytes SignPayload signs for payload, before the
// prefix is added.
func PayloadBytes(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case string:
		return []byte(p), nil
	case []byte:
		return p, nil
	case json.RawMessage:
		return p, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, errorutil.Wrap(err, "encoding payload as json")
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func prefixed(data []byte) []byte {
	out := make([]byte, 0, len(PayloadPrefix)+1+len(data))
	out = append(out, PayloadPrefix...)
	out = append(out, '\n')
	return append(out, data...)
}

// ParsePrivateKeyPEM loads an RSA private key from a PKCS#1 ("RSA PRIVATE
// KEY") or PKCS#8 ("PRIVATE KEY") PEM block.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, errorutil.Wrap(err, "parsing pkcs1 key")
		}
		return key, nil
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, errorutil.Wrap(err, "parsing pkcs8 key")
		}

		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is a %T, not RSA", key)
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}
