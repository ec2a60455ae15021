package shared

import "context"

// Actor describes the authenticated user behind a bridge request.
type Actor struct {
	UserID      string   `json:"userId"`
	Username    string   `json:"username"`
	RoleID      string   `json:"roleId"`
	Permissions []string `json:"permissions"`
	SuperAdmin  bool     `json:"superAdmin"`
}

// Can reports whether the actor holds permission.
func (a Actor) Can(permission string) bool {
	if a.SuperAdmin || permission == "" {
		return true
	}
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// ActorID returns the acting user id or an empty string for system calls.
func ActorID(ctx context.Context) string {
	actor, _ := ActorFromContext(ctx)
	return actor.UserID
}

type sessionContextKey struct{}

// ContextWithSession stores the bridge session and its actor in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey{}, sess)
	return ContextWithActor(ctx, sess.Actor)
}

// SessionFromContext returns the bridge session if present.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*Session)
	return sess, ok && sess != nil
}
