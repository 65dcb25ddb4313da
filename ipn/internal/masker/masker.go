// Package masker seals the payload of a notification until its signature has
// been checked, so code holding an unverified notification can't read the
// payload by accident.
package masker

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

type Key [32]byte

// KeyFor derives the sealing key for a notification from its claimed
// signature.
func KeyFor(signature string) *Key {
	k := Key(blake2b.Sum256([]byte(signature)))
	return &k
}

// Seal encrypts data under key with a random nonce, which is prepended to the
// output.
func Seal(key *Key, data []byte) []byte {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		panic(err)
	}

	return secretbox.Seal(nonce[:], data, &nonce, (*[32]byte)(key))
}

// Open reverses Seal.
func Open(key *Key, sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errors.New("sealed data too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	data, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, (*[32]byte)(key))
	if !ok {
		return nil, errors.New("failed to open sealed data")
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}
