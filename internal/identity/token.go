package identity

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid_jwt")
	ErrInvalidIssuer = errors.New("invalid_issuer")
)

// TokenVerifier valida tokens inbound (HS256 con secreto compartido).
// Este servicio nunca emite tokens; sólo los consume, por eso no hay
// keystore ni rotación acá.
type TokenVerifier struct {
	secret []byte
	issuer string // si está vacío no se chequea iss
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Caller es la identidad verificada que viaja con el request: sub y email del
// token. Los claims persistidos se hidratan aparte, desde el Provider.
type Caller struct {
	UID   string
	Email string
}

// Verify valida firma, iss (si corresponde) y exp/nbf con una pequeña
// tolerancia. Devuelve el caller mínimo (uid + email).
func (v *TokenVerifier) Verify(raw string) (*Caller, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) { return v.secret, nil }

	tok, err := jwtv5.Parse(raw, keyfunc, jwtv5.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if v.issuer != "" {
		if iss, _ := claims["iss"].(string); iss != v.issuer {
			return nil, ErrInvalidIssuer
		}
	}

	now := time.Now()
	if expf, ok := claims["exp"].(float64); ok {
		if time.Unix(int64(expf), 0).Before(now.Add(-30 * time.Second)) {
			return nil, ErrInvalidToken
		}
	}
	if nbff, ok := claims["nbf"].(float64); ok {
		if time.Unix(int64(nbff), 0).After(now.Add(30 * time.Second)) {
			return nil, ErrInvalidToken
		}
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	return &Caller{UID: sub, Email: email}, nil
}
