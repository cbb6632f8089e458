package jwt

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/docker/libtrust"
	"github.com/golang-jwt/jwt/v5"
)

// MinHMACKeyLength is the recommended minimum length of HMAC-SHA256 secrets.
const MinHMACKeyLength = 32

// SigningKey signs and verifies tokens with a single algorithm.
type SigningKey interface {
	// SigningMethod is the only algorithm accepted when verifying tokens.
	SigningMethod() jwt.SigningMethod

	// SignKey is the key passed to SigningMethod.Sign.
	SignKey() any

	// VerifyKey is the key passed to SigningMethod.Verify.
	VerifyKey() any

	// KeyID is written to the "kid" header, if not empty.
	KeyID() string

	Validate() error
}

// HMACKey is a shared secret used with HMAC-SHA256.
type HMACKey []byte

func (k HMACKey) SigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}

func (k HMACKey) SignKey() any {
	return []byte(k)
}

func (k HMACKey) VerifyKey() any {
	return []byte(k)
}

func (k HMACKey) KeyID() string {
	return ""
}

func (k HMACKey) Validate() error {
	if len(k) == 0 {
		return errors.New("hmac signing key must not be empty")
	}

	return nil
}

// Weak reports whether the secret is shorter than MinHMACKeyLength.
func (k HMACKey) Weak() bool {
	return len(k) < MinHMACKeyLength
}

// LibtrustKey is an RSA or EC private key loaded with libtrust.
// Tokens are verified with its public half.
type LibtrustKey struct {
	Key libtrust.PrivateKey
}

// LoadLibtrustKey loads a PEM or JWK private key file.
func LoadLibtrustKey(file string) (LibtrustKey, error) {
	key, err := libtrust.LoadKeyFile(file)
	if err != nil {
		return LibtrustKey{}, err
	}

	return LibtrustKey{Key: key}, nil
}

func (k LibtrustKey) SigningMethod() jwt.SigningMethod {
	alg, err := detectSigningMethod(k.Key)
	if err != nil {
		return nil
	}

	return alg
}

func (k LibtrustKey) SignKey() any {
	return k.Key.CryptoPrivateKey()
}

func (k LibtrustKey) VerifyKey() any {
	return k.Key.PublicKey().CryptoPublicKey()
}

func (k LibtrustKey) KeyID() string {
	return k.Key.KeyID()
}

func (k LibtrustKey) Validate() error {
	if k.Key == nil {
		return errors.New("private key is required")
	}

	_, err := detectSigningMethod(k.Key)

	return err
}

func detectSigningMethod(key libtrust.PrivateKey) (jwt.SigningMethod, error) {
	switch key.KeyType() {
	case "RSA":
		return jwt.SigningMethodRS256, nil

	case "EC":
		ecKey, ok := key.CryptoPrivateKey().(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("unsupported EC key %T", key.CryptoPrivateKey())
		}

		switch ecKey.Curve.Params().BitSize {
		case 256:
			return jwt.SigningMethodES256, nil
		case 384:
			return jwt.SigningMethodES384, nil
		case 521:
			return jwt.SigningMethodES512, nil
		}

		return nil, fmt.Errorf("unsupported EC curve %s", ecKey.Curve.Params().Name)
	}

	return nil, fmt.Errorf("unsupported signing key type %q", key.KeyType())
}
