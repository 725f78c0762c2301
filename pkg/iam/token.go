package iam

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dcos/dcos-test-utils/pkg/certificates"
)

const loginTokenTTL = 5 * time.Minute

// LoginToken signs the short lived RS256 token a service account exchanges
// for an authentication token.
func LoginToken(uid string, privateKey []byte) (string, error) {
	key, err := certificates.ParsePrivateKey(privateKey)
	if err != nil {
		return "", fmt.Errorf("parsing private key of %s: %w", uid, err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"uid": uid,
		"exp": time.Now().Add(loginTokenTTL).Unix(),
	})
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing login token of %s: %w", uid, err)
	}
	return signed, nil
}

// LoginCredentials converts credentials into the body of a login request.
// Service account credentials carrying a private key are exchanged for a
// signed token, anything else is sent as is.
func LoginCredentials(credentials map[string]any) (map[string]any, error) {
	privateKey, ok := credentials["private_key"].(string)
	if !ok || privateKey == "" {
		return credentials, nil
	}

	uid, _ := credentials["uid"].(string)
	token, err := LoginToken(uid, []byte(privateKey))
	if err != nil {
		return nil, err
	}
	return map[string]any{"uid": uid, "token": token}, nil
}
