// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clientconn

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ErrUnauthorized is returned by an Authenticator for a key it does not
// accept.
var ErrUnauthorized = errors.New("public key is not authorized")

// Authenticator decides whether a client holding publicKey may connect,
// and under which identity.
type Authenticator interface {
	Authenticate(publicKey ed25519.PublicKey) (identity string, err error)
}

// AuthorizedKeys is an Authenticator backed by the ssh-ed25519 entries of
// an OpenSSH authorized_keys file. The identity of a key is its comment,
// or its SHA256 fingerprint when the comment is empty. Entries of other
// key types are skipped.
type AuthorizedKeys struct {
	identities map[string]string
}

// LoadAuthorizedKeys reads an authorized_keys file.
func LoadAuthorizedKeys(path string) (*AuthorizedKeys, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading authorized keys: %w", err)
	}
	keys, err := ParseAuthorizedKeys(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return keys, nil
}

// ParseAuthorizedKeys parses authorized_keys content. Blank lines and
// comments are ignored. A malformed line is an error; a well-formed key
// of a type other than ssh-ed25519 is skipped.
func ParseAuthorizedKeys(data []byte) (*AuthorizedKeys, error) {
	keys := &AuthorizedKeys{identities: make(map[string]string)}
	lineNumber := 0
	for line := range bytes.Lines(data) {
		lineNumber++
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 || trimmed[0] == '#' {
			continue
		}
		publicKey, comment, _, _, err := ssh.ParseAuthorizedKey(trimmed)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		if publicKey.Type() != ssh.KeyAlgoED25519 {
			continue
		}
		cryptoKey, ok := publicKey.(ssh.CryptoPublicKey)
		if !ok {
			continue
		}
		edKey, ok := cryptoKey.CryptoPublicKey().(ed25519.PublicKey)
		if !ok {
			continue
		}
		identity := strings.TrimSpace(comment)
		if identity == "" {
			identity = ssh.FingerprintSHA256(publicKey)
		}
		keys.identities[string(edKey)] = identity
	}
	return keys, nil
}

// Len returns the number of authorized keys.
func (k *AuthorizedKeys) Len() int {
	return len(k.identities)
}

// Authenticate returns the identity recorded for publicKey.
func (k *AuthorizedKeys) Authenticate(publicKey ed25519.PublicKey) (string, error) {
	identity, ok := k.identities[string(publicKey)]
	if !ok {
		return "", ErrUnauthorized
	}
	return identity, nil
}

// LoadPrivateKey reads an unencrypted OpenSSH (or PKCS#8) Ed25519 private
// key.
func LoadPrivateKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}
	raw, err := ssh.ParseRawPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parsing private key %s: %w", path, err)
	}
	switch key := raw.(type) {
	case ed25519.PrivateKey:
		return key, nil
	case *ed25519.PrivateKey:
		return *key, nil
	default:
		return nil, fmt.Errorf("private key %s is %T, want ed25519", path, raw)
	}
}
