// Package sshkey validates caller-supplied SSH public keys.
//
// Keys are accepted in OpenSSH authorized_keys format and normalized so the
// same key always yields the same line and fingerprint. Key pairs are
// generated by package keygen.
package sshkey

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ErrEmptyKey is returned by Parse for blank input.
var ErrEmptyKey = errors.New("empty ssh public key")

// PublicKey is a parsed authorized_keys entry.
type PublicKey struct {
	// Type is the key algorithm, e.g. ssh-ed25519.
	Type string
	// Fingerprint is the SHA256 fingerprint in OpenSSH format.
	Fingerprint string
	// Comment is the trailing comment, if any.
	Comment string
	// AuthorizedKey is the normalized authorized_keys line without comment.
	AuthorizedKey string
}

// Parse parses a single OpenSSH authorized_keys line.
func Parse(line string) (*PublicKey, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrEmptyKey
	}

	pub, comment, _, rest, err := ssh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh public key: %w", err)
	}
	if len(bytes.TrimSpace(rest)) > 0 {
		return nil, errors.New("failed to parse ssh public key: more than one key given")
	}

	return &PublicKey{
		Type:          pub.Type(),
		Fingerprint:   ssh.FingerprintSHA256(pub),
		Comment:       comment,
		AuthorizedKey: strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub))),
	}, nil
}
