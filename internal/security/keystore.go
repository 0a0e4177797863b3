package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/aq2208/growcery-api/configs"
)

// SigningKeys holds the material used to sign and verify access tokens.
// HS256 uses Secret; RS256 verifies with RSAPub and signs with RSAPri.
type SigningKeys struct {
	Method string
	Secret []byte
	RSAPub *rsa.PublicKey
	RSAPri *rsa.PrivateKey
}

func LoadSigningKeys(c configs.Config) (SigningKeys, error) {
	method := strings.ToUpper(c.Security.SigningMethod)
	if method == "" {
		method = "HS256"
	}
	switch method {
	case "HS256":
		if c.Security.JWTSecret == "" {
			return SigningKeys{}, errors.New("security.jwt_secret required for HS256")
		}
		return SigningKeys{Method: method, Secret: []byte(c.Security.JWTSecret)}, nil
	case "RS256":
		if c.Security.RSAPubPEM == "" || c.Security.RSAPriPEM == "" {
			return SigningKeys{}, errors.New("security.rsa_pub_pem and security.rsa_pri_pem required for RS256")
		}
		pub, err := parseRSAPublicKeyFromPEM([]byte(c.Security.RSAPubPEM))
		if err != nil {
			return SigningKeys{}, fmt.Errorf("parse rsa pub pem: %w", err)
		}
		pri, err := parseRSAPrivateKeyFromPEM([]byte(c.Security.RSAPriPEM))
		if err != nil {
			return SigningKeys{}, fmt.Errorf("parse rsa pri pem: %w", err)
		}
		return SigningKeys{Method: method, RSAPub: pub, RSAPri: pri}, nil
	}
	return SigningKeys{}, fmt.Errorf("unsupported signing method %q", c.Security.SigningMethod)
}

func parseRSAPublicKeyFromPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no pem block")
	}
	pubAny, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := pubAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not rsa public key")
	}
	return pub, nil
}

func parseRSAPrivateKeyFromPEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no pem block in RSA private key")
	}

	// try PKCS#8 first
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err == nil {
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, errors.New("not an RSA private key in PKCS#8")
	}

	// fallback to PKCS#1
	rsaKey, err2 := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err2 != nil {
		return nil, fmt.Errorf("parse RSA private key failed (PKCS#8: %v, PKCS#1: %v)", err, err2)
	}
	return rsaKey, nil
}
