package params

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/smithy-go/encoding/httpbinding"
)

// Pair is one flattened key and its unescaped value.
type Pair struct {
	Key   string
	Value string
}

// Query is a flattened parameter list sorted by key.
type Query []Pair

// Flatten walks t and returns its entries sorted by key in byte order.
//
// Two entries flattening to the same key is a caller error; nothing is
// silently dropped.
func Flatten(t *Tree) (Query, error) {
	var q Query
	if t != nil {
		q = make(Query, 0, t.Len())
		flattenTree(&q, "", t)
	}

	sort.SliceStable(q, func(i, j int) bool { return q[i].Key < q[j].Key })

	for i := 1; i < len(q); i++ {
		if q[i].Key == q[i-1].Key {
			return nil, fmt.Errorf("duplicate parameter %q", q[i].Key)
		}
	}

	return q, nil
}

func flattenTree(q *Query, prefix string, t *Tree) {
	for _, k := range t.keys {
		flattenValue(q, prefix+k, t.values[k])
	}
}

func flattenValue(q *Query, key string, v Value) {
	switch v.kind {
	case kindScalar:
		*q = append(*q, Pair{Key: key, Value: v.scalar})
	case kindObject:
		flattenTree(q, key+".", v.object)
	case kindList:
		for i, m := range v.list {
			n := strconv.Itoa(i + 1)
			if m.kind == kindObject {
				flattenTree(q, key+".member."+n+".", m.object)
			} else {
				flattenValue(q, key+"."+n, m)
			}
		}
	}
}

// Get returns the value for key.
func (q Query) Get(key string) (string, bool) {
	i := sort.Search(len(q), func(i int) bool { return q[i].Key >= key })
	if i < len(q) && q[i].Key == key {
		return q[i].Value, true
	}
	return "", false
}

// Encode serializes q as "k=v" pairs joined by "&", escaping both sides with
// Escape. Order is preserved, so a sorted Query encodes deterministically.
func (q Query) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(Escape(p.Key))
		b.WriteByte('=')
		b.WriteString(Escape(p.Value))
	}
	return b.String()
}

// Escape percent-encodes every byte outside the RFC 3986 unreserved set
// (A-Z a-z 0-9 - _ . ~) as uppercase %XX. Spaces become %20, never '+'.
func Escape(s string) string {
	return httpbinding.EscapePath(s, true)
}
