package masker

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"testing"
)

func TestSealRoundTrip(t *testing.T) {
	key := KeyFor("EXAMPLEpH+DcEwjAPg8O9mY8dReBSwksfg2S7WKQcikcNKWLQjwu6A4VbeS0QHVCkhRS7fUQvi2egU3N858fiTDN6bkkOxYDVrY0Ad8L10Hs3zH81mtnPk5uvvolIC1CXGu43obcgFxeL3khZl8IKvO61GWB6jI9b5+gLPoBc1Q=")

	for _, payload := range [][]byte{
		[]byte(`{"NotificationType":"PaymentCapture"}`),
		{},
	} {
		sealed := Seal(key, payload)

		{ // Debug
			t.Logf("Sealed: %q", hex.EncodeToString(sealed))
		}

		if bytes.Contains(sealed, payload) && len(payload) > 0 {
			t.Fatal("sealed output contains the plaintext")
		}

		rt, err := Open(key, sealed)
		if err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(rt, payload) {
			t.Fatalf("expected %q, got %q", payload, rt)
		}
	}
}

func TestOpenWrongKey(t *testing.T) {
	sealed := Seal(KeyFor("signature-a"), []byte("hello world"))

	rt, err := Open(KeyFor("signature-b"), sealed)
	if err == nil {
		t.Fatal("open should not succeed under a different key")
	}
	if rt != nil {
		t.Fatalf("expected nil, got %v", rt)
	}
}

func TestOpenGarbage(t *testing.T) {
	key := KeyFor("signature")

	bad := make([]byte, 60)
	if _, err := rand.Read(bad); err != nil {
		panic("failed to read random bytes")
	}

	for _, tc := range [][]byte{nil, {1, 2, 3}, bad} {
		if _, err := Open(key, tc); err == nil {
			t.Fatalf("open should not succeed on %x", tc)
		}
	}
}
