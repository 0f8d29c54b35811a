// Package auth resolves the current user for incoming requests. Identity
// management proper is an external concern; this package only adapts a
// Basic-auth credential check into a per-request user value.
package auth

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/polyhub/calsync/internal/storage"
)

// ErrInvalidCredentials is returned when authentication fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

type contextKey string

const userContextKey contextKey = "user"

// Authenticator validates credentials and resolves the caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*storage.User, error)
}

// UserFromContext retrieves the authenticated user from the context.
func UserFromContext(ctx context.Context) *storage.User {
	if u, ok := ctx.Value(userContextKey).(*storage.User); ok {
		return u
	}
	return nil
}

// ContextWithUser returns a context carrying the authenticated user.
func ContextWithUser(ctx context.Context, user *storage.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// Middleware creates HTTP middleware that enforces Basic authentication and
// stores the resolved user in the request context.
func Middleware(authenticator Authenticator, realm string) func(http.Handler) http.Handler {
	if realm == "" {
		realm = "Calendar"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Capability discovery stays open; OPTIONS touches no state.
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			username, password, ok := r.BasicAuth()
			if !ok {
				requestAuth(w, realm)
				return
			}

			user, err := authenticator.Authenticate(r.Context(), username, password)
			if err != nil {
				requestAuth(w, realm)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// requestAuth sends WWW-Authenticate header
func requestAuth(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// Static is a fixed username/password table, a stand-in for the identity
// collaborator. User IDs are assigned by registration order.
type Static struct {
	users map[string]staticUser
}

type staticUser struct {
	id       int64
	password string
}

// NewStatic builds a Static authenticator from username -> password pairs.
// IDs are assigned in sorted username order so they stay stable across runs.
func NewStatic(credentials map[string]string) *Static {
	usernames := make([]string, 0, len(credentials))
	for username := range credentials {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	users := make(map[string]staticUser, len(credentials))
	for i, username := range usernames {
		users[username] = staticUser{id: int64(i + 1), password: credentials[username]}
	}
	return &Static{users: users}
}

func (s *Static) Authenticate(_ context.Context, username, password string) (*storage.User, error) {
	u, ok := s.users[username]
	if !ok || u.password != password {
		return nil, ErrInvalidCredentials
	}
	return &storage.User{ID: u.id, Username: username}, nil
}
