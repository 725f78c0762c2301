package certificates

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

const defaultKeyBits = 2048

// KeyPair is a PEM encoded RSA key pair as accepted by the service account
// API: a PKCS#1 private key and a PKIX public key.
type KeyPair struct {
	PrivateKey string
	PublicKey  string
}

// GenerateKeyPair generates an RSA key pair. bits <= 0 uses 2048.
func GenerateKeyPair(bits int) (KeyPair, error) {
	if bits <= 0 {
		bits = defaultKeyBits
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return KeyPair{}, fmt.Errorf("failed to generate rsa private key: %w", err)
	}

	publicKey, err := x509.MarshalPKIXPublicKey(privateKey.Public())
	if err != nil {
		return KeyPair{}, fmt.Errorf("failed to marshal public key: %w", err)
	}

	return KeyPair{
		PrivateKey: string(pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
		})),
		PublicKey: string(pem.EncodeToMemory(&pem.Block{
			Type:  "PUBLIC KEY",
			Bytes: publicKey,
		})),
	}, nil
}

// ParsePrivateKey parses a PKCS#1 or PKCS#8 PEM encoded RSA private key.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM data found in private key")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is %T, expected RSA", key)
		}
		return rsaKey, nil
	}
	return nil, fmt.Errorf("unsupported private key type %q", block.Type)
}
