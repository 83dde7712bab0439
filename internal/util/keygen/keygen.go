package keygen

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Algorithm selects the key type.
type Algorithm string

const (
	AlgorithmEd25519 Algorithm = "ed25519"
	AlgorithmRSA     Algorithm = "rsa"
)

// DefaultRSABits is the RSA modulus size used by Generate.
const DefaultRSABits = 4096

// KeyPair holds a key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the PEM-encoded OpenSSH private key.
	PrivateKey []byte
	// PublicKey is the authorized_keys line, with comment when one was given.
	PublicKey string
}

// Generate creates a key pair of the given algorithm.
func Generate(alg Algorithm, comment string) (*KeyPair, error) {
	switch alg {
	case AlgorithmEd25519, "":
		return GenerateEd25519(comment)
	case AlgorithmRSA:
		return GenerateRSA(DefaultRSABits, comment)
	default:
		return nil, fmt.Errorf("unsupported key algorithm %q (want %s or %s)", alg, AlgorithmEd25519, AlgorithmRSA)
	}
}

// GenerateEd25519 creates an Ed25519 key pair.
func GenerateEd25519(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	return encode(pub, priv, comment)
}

// GenerateRSA creates an RSA key pair with the given modulus size.
func GenerateRSA(bits int, comment string) (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate RSA private key: %w", err)
	}
	return encode(&priv.PublicKey, priv, comment)
}

func encode(pub crypto.PublicKey, priv crypto.PrivateKey, comment string) (*KeyPair, error) {
	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub)))
	if comment != "" {
		line += " " + comment
	}

	return &KeyPair{
		PrivateKey: pem.EncodeToMemory(block),
		PublicKey:  line,
	}, nil
}
