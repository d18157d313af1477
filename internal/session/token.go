package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = errors.New("no credential presented")
	ErrMalformedToken = errors.New("credential is not a well-formed token")
	ErrInvalidToken   = errors.New("credential signature is invalid")
	ErrTokenExpired   = errors.New("credential has expired")
	ErrMissingSubject = errors.New("credential has no usable sub claim")
)

// TokenVerifier reads the employee id from a bearer credential's sub claim. Without a
// secret the payload is decoded but not verified; the HR backend stays the authority
// on whether the credential is genuine.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewTokenVerifier(secret string) *TokenVerifier {
	v := &TokenVerifier{}
	if secret != "" {
		v.secret = []byte(secret)
		v.parser = jwt.NewParser(
			jwt.WithJSONNumber(),
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
	} else {
		v.parser = jwt.NewParser(jwt.WithJSONNumber())
	}
	return v
}

// Verifies reports whether signatures are checked.
func (v *TokenVerifier) Verifies() bool {
	return len(v.secret) > 0
}

func (v *TokenVerifier) Subject(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrMissingToken
	}

	claims := jwt.MapClaims{}
	if v.Verifies() {
		_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return v.secret, nil
		})
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				return 0, ErrTokenExpired
			case errors.Is(err, jwt.ErrTokenMalformed):
				return 0, ErrMalformedToken
			default:
				return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
			}
		}
	} else {
		if _, _, err := v.parser.ParseUnverified(token, claims); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	return subjectID(claims["sub"])
}

// subjectID accepts the sub claim as a string or a JSON number; both occur in the wild.
func subjectID(raw interface{}) (int64, error) {
	var id int64
	switch sub := raw.(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(sub), 10, 64)
		if err != nil {
			return 0, ErrMissingSubject
		}
		id = parsed
	case json.Number:
		parsed, err := sub.Int64()
		if err != nil {
			f, ferr := sub.Float64()
			if ferr != nil || f != math.Trunc(f) {
				return 0, ErrMissingSubject
			}
			parsed = int64(f)
		}
		id = parsed
	case float64:
		if sub != math.Trunc(sub) {
			return 0, ErrMissingSubject
		}
		id = int64(sub)
	default:
		return 0, ErrMissingSubject
	}

	if id <= 0 {
		return 0, ErrMissingSubject
	}
	return id, nil
}
