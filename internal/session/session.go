package session

import (
	"context"

	"github.com/finwise/notification-engine/pkg/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is the authenticated identity attached to a request.
type Session struct {
	UserID primitive.ObjectID
	Role   string
}

// Provider exposes the identity collaborator the engine consumes. A nil
// session with a nil error means no one is signed in.
type Provider interface {
	GetSession(ctx context.Context) (*Session, error)
	RefreshSession(ctx context.Context) error
}

// ContextProvider resolves the session from the JWT claims the auth
// middleware stored in the request context.
type ContextProvider struct{}

func NewContextProvider() *ContextProvider {
	return &ContextProvider{}
}

func (p *ContextProvider) GetSession(ctx context.Context) (*Session, error) {
	claims := middleware.GetUserFromContext(ctx)
	if claims == nil {
		return nil, nil
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, err
	}
	return &Session{UserID: userID, Role: claims.Role}, nil
}

// RefreshSession is a no-op for context-backed sessions: the claims live
// exactly as long as the request that carried them.
func (p *ContextProvider) RefreshSession(ctx context.Context) error {
	return nil
}
