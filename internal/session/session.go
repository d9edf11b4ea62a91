// Package session carries the caller identity through a request.
package session

import "context"

const RoleAdmin = "admin"

type Principal struct {
	ID   string
	Role string
}

// Session is the caller of one request. Anonymous callers have no principal
// and are identified by the cart id they present.
type Session struct {
	Principal *Principal
	Token     string
	CartID    string
}

func (s Session) IsAuthenticated() bool {
	return s.Principal != nil && s.Principal.ID != ""
}

func (s Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.Principal.Role == RoleAdmin
}

// OwnerID keys the cart of this caller. Empty when there is neither a user
// nor a cart id.
func (s Session) OwnerID() string {
	if s.IsAuthenticated() {
		return s.Principal.ID
	}
	return s.GuestOwnerID()
}

// GuestOwnerID keys the cart kept under the presented cart id, which is the
// guest cart of a caller that has since signed in.
func (s Session) GuestOwnerID() string {
	if s.CartID == "" {
		return ""
	}
	return "guest:" + s.CartID
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(ctxKey{}).(Session)
	return s
}
