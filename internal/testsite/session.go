package testsite

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

type contextKey string

const userKey contextKey = "user"

// ErrNoSession is returned when a request carries no valid session.
var ErrNoSession = errors.New("no session")

// sessions maps opaque cookie values to the signed-in user of one site.
type sessions struct {
	cookie string

	mu    sync.Mutex
	users map[string]string
}

func newSessions(cookie string) *sessions {
	return &sessions{cookie: cookie, users: map[string]string{}}
}

// Create signs user in and sets the session cookie.
func (s *sessions) Create(w http.ResponseWriter, user string) {
	id := randomHex(16)
	s.mu.Lock()
	s.users[id] = user
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Destroy signs the request's user out and clears the cookie.
func (s *sessions) Destroy(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.cookie); err == nil {
		s.mu.Lock()
		delete(s.users, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// User returns the signed-in user of r.
func (s *sessions) User(r *http.Request) (string, error) {
	c, err := r.Cookie(s.cookie)
	if err != nil {
		return "", ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[c.Value]
	if !ok {
		return "", ErrNoSession
	}
	return user, nil
}

// RequireAuthWithRedirect sends visitors without a session to loginPath.
func (s *sessions) RequireAuthWithRedirect(loginPath string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.User(r)
		if err != nil {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// OptionalAuth adds the user to the context when signed in.
func (s *sessions) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, err := s.User(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), userKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

func userFrom(ctx context.Context) string {
	user, _ := ctx.Value(userKey).(string)
	return user
}
