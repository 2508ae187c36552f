package identity

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	userdomain "github.com/bookmehq/bookme/internal/user/domain"
)

type jwtResolver struct {
	secret []byte
	users  userdomain.Repository
}

func NewJWTResolver(secret string, users userdomain.Repository) Resolver {
	return &jwtResolver{secret: []byte(secret), users: users}
}

func (r *jwtResolver) ResolveToken(ctx context.Context, token string) (*Identity, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return r.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := r.users.GetUser(ctx, userID)
	if err != nil {
		if err == userdomain.ErrUserNotFound {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return &Identity{
		UserID:        user.ID,
		Email:         user.Email,
		Superuser:     user.IsSuperuser,
		PlatformStaff: user.IsPlatformStaff,
	}, nil
}
