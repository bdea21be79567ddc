package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// Role values carried in the auth token's role claim. The core trusts the
// claim and never re-derives it.
const (
	RoleUser      = "user"
	RoleDeveloper = "developer"
	RoleAdmin     = "admin"
)

type RequestData struct {
	TokenString  string
	RefreshToken string
	UserID       uuid.UUID
	Role         string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// HasRole reports whether the request role grants at least the given role.
// Admins satisfy every gate; developers satisfy the user gate.
func (rd *RequestData) HasRole(role string) bool {
	if rd == nil {
		return false
	}
	switch role {
	case RoleAdmin:
		return rd.Role == RoleAdmin
	case RoleDeveloper:
		return rd.Role == RoleDeveloper || rd.Role == RoleAdmin
	default:
		return rd.Role != ""
	}
}
