package ipn

import (
	"slices"
	"strings"
)

// signableFields are the notification fields covered by the signature.
var signableFields = []string{"Message", "MessageId", "Subject", "Timestamp", "TopicArn", "Type"}

// CanonicalString is the string an SNS notification signature is computed
// over: each signable field present in fields, sorted by name, written as
// "Name\nValue\n". Other entries of fields are ignored.
func CanonicalString(fields map[string]string) string {
	names := make([]string, 0, len(signableFields))
	for _, name := range signableFields {
		if _, ok := fields[name]; ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('\n')
		b.WriteString(fields[name])
		b.WriteByte('\n')
	}
	return b.String()
}
