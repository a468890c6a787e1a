package rpc

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const adminScope = "admin"

// authenticator validates HMAC-signed bearer tokens guarding admin methods.
type authenticator struct {
	secret    []byte
	issuer    string
	clockSkew time.Duration
}

func newAuthenticator(secret []byte, issuer string) *authenticator {
	return &authenticator{
		secret:    secret,
		issuer:    issuer,
		clockSkew: 2 * time.Minute,
	}
}

// authorize checks the request carries a valid token granting the required
// scope.
func (a *authenticator) authorize(r *http.Request, requiredScope string) error {
	if a == nil || len(a.secret) == 0 {
		return errors.New("admin access is not configured")
	}
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return errors.New("missing bearer token")
	}
	claims, err := a.parseToken(tokenString)
	if err != nil {
		return err
	}
	if a.issuer != "" {
		if value, ok := claims["iss"].(string); !ok || value != a.issuer {
			return errors.New("issuer mismatch")
		}
	}
	if requiredScope != "" && !hasScope(claims, requiredScope) {
		return errors.New("insufficient scope")
	}
	return nil
}

func (a *authenticator) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(a.clockSkew))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims not map")
	}
	return claims, nil
}

func hasScope(claims jwt.MapClaims, required string) bool {
	raw, ok := claims["scope"]
	if !ok {
		return false
	}
	switch v := raw.(type) {
	case string:
		for _, scope := range strings.Fields(v) {
			if scope == required {
				return true
			}
		}
	case []interface{}:
		for _, entry := range v {
			if s, ok := entry.(string); ok && s == required {
				return true
			}
		}
	}
	return false
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
