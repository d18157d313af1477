// Package session is the trust boundary between a stored or presented bearer
// credential and the employee id the self-service screens act for.
package session

import (
	"context"
	"sync"

	"github.com/frahmantamala/hr-portal/internal"
)

// Session is the capability handed to screens. It exposes the employee id only and
// decodes the credential at most once, on first use.
type Session struct {
	token    string
	verifier *TokenVerifier

	once       sync.Once
	employeeID int64
	err        error
}

func New(token string, verifier *TokenVerifier) *Session {
	return &Session{token: token, verifier: verifier}
}

// EmployeeID returns the sub claim of the credential. A missing or undecodable
// credential is an identity error.
func (s *Session) EmployeeID() (int64, error) {
	if s == nil {
		return 0, internal.NewIdentityError(internal.MsgIdentityFailed, ErrMissingToken)
	}
	s.once.Do(func() {
		if s.verifier == nil {
			s.err = ErrMissingToken
			return
		}
		s.employeeID, s.err = s.verifier.Subject(s.token)
	})
	if s.err != nil {
		return 0, internal.NewIdentityError(internal.MsgIdentityFailed, s.err)
	}
	return s.employeeID, nil
}

// Token is the raw credential, forwarded to the HR backend as a bearer token.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session or nil. A nil session answers every
// EmployeeID call with an identity error.
func FromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// EmployeeID resolves the identity of the request in ctx.
func EmployeeID(ctx context.Context) (int64, error) {
	return FromContext(ctx).EmployeeID()
}
