package ipn

import (
	"crypto/x509"
	"encoding/asn1"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// snsHostPattern matches the hosts SNS serves signing certificates from, e.g.
// sns.us-east-1.amazonaws.com or sns.cn-north-1.amazonaws.com.cn.
var snsHostPattern = regexp.MustCompile(`^sns\.[a-zA-Z0-9-]{3,}\.amazonaws\.com(\.cn)?$`)

// ValidateCertURL checks that raw is an https URL on an SNS host. Hosts are
// compared after IDNA normalisation, so Unicode look-alikes are rejected.
func ValidateCertURL(raw string) (*url.URL, error) {
	bad := &AuthenticationError{
		Stage:  HeaderValidated,
		Reason: "certificate is not hosted at AWS URL (https)",
		URL:    raw,
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.User != nil || u.Port() != "" {
		return nil, bad
	}

	host, err := idna.Lookup.ToASCII(u.Hostname())
	if err != nil || !snsHostPattern.MatchString(strings.ToLower(host)) {
		return nil, bad
	}

	return u, nil
}

// SubjectAttribute is one attribute of a certificate subject, Type being the
// short name (C, ST, L, O, OU, CN) or the dotted OID for anything else.
type SubjectAttribute struct {
	Type  string
	Value string
}

func (a SubjectAttribute) String() string {
	return a.Type + "=" + a.Value
}

var oidShortNames = map[string]string{
	"2.5.4.6":  "C",
	"2.5.4.7":  "L",
	"2.5.4.8":  "ST",
	"2.5.4.10": "O",
	"2.5.4.11": "OU",
	"2.5.4.3":  "CN",
}

// SubjectOf returns cert's subject attributes in certificate order.
func SubjectOf(cert *x509.Certificate) []SubjectAttribute {
	attrs := make([]SubjectAttribute, 0, len(cert.Subject.Names))
	for _, n := range cert.Subject.Names {
		attrs = append(attrs, SubjectAttribute{
			Type:  shortName(n.Type),
			Value: fmt.Sprint(n.Value),
		})
	}
	return attrs
}

func shortName(oid asn1.ObjectIdentifier) string {
	if name, ok := oidShortNames[oid.String()]; ok {
		return name
	}
	return oid.String()
}

// SubjectMatcher is one expected subject attribute. With Suffix set, Value
// only has to end the actual value, so an empty Value accepts any. An
// Optional attribute may be absent, but must match when present.
type SubjectMatcher struct {
	Type     string
	Value    string
	Suffix   bool
	Optional bool
}

func (m SubjectMatcher) matches(a SubjectAttribute) bool {
	if m.Type != a.Type {
		return false
	}
	if m.Suffix {
		return strings.HasSuffix(a.Value, m.Value)
	}
	return a.Value == m.Value
}

func (m SubjectMatcher) String() string {
	s := m.Type + "=" + m.Value
	if m.Suffix {
		s = m.Type + "=*" + m.Value
	}
	if m.Optional {
		return "[" + s + "]"
	}
	return s
}

// DefaultSubject is the subject Amazon's SNS signing certificates carry, in
// X.509 order: C, ST, L, O, an optional OU of any value, then a CN under
// amazonaws.com.
func DefaultSubject() []SubjectMatcher {
	return []SubjectMatcher{
		{Type: "C", Value: "US"},
		{Type: "ST", Value: "Washington"},
		{Type: "L", Value: "Seattle"},
		{Type: "O", Value: "Amazon.com, Inc."},
		{Type: "OU", Suffix: true, Optional: true},
		{Type: "CN", Value: "amazonaws.com", Suffix: true},
	}
}

// ValidateSubject compares actual with expected attribute by attribute, in
// order. A missing required attribute, a differing attribute or anything
// left over in actual fails.
func ValidateSubject(actual []SubjectAttribute, expected []SubjectMatcher) error {
	if matchSubject(actual, expected) {
		return nil
	}

	return &AuthenticationError{
		Stage:    CertificateFetched,
		Reason:   "unable to verify certificate subject issued by Amazon",
		Expected: joinAttrs(expected),
		Actual:   joinAttrs(actual),
	}
}

func matchSubject(actual []SubjectAttribute, expected []SubjectMatcher) bool {
	i := 0
	for _, m := range expected {
		switch {
		case i < len(actual) && m.matches(actual[i]):
			i++
		case !m.Optional:
			return false
		}
	}
	return i == len(actual)
}

func joinAttrs[T fmt.Stringer](attrs []T) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}
