package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aisohq/aiso-market/internal/data/repos"
	"github.com/aisohq/aiso-market/internal/data/txn"
	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/dbctx"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
	"github.com/aisohq/aiso-market/internal/requestdata"
)

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

type TokenPair struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         *types.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*TokenPair, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ParseAccessToken(tokenString string) (*requestdata.RequestData, error)
}

type authService struct {
	log        *logger.Logger
	tx         txn.TxRunner
	userRepo   repos.UserRepo
	tokenRepo  repos.UserTokenRepo
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(
	log *logger.Logger,
	tx txn.TxRunner,
	userRepo repos.UserRepo,
	tokenRepo repos.UserTokenRepo,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
) AuthService {
	return &authService{
		log:        log.With("service", "AuthService"),
		tx:         tx,
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, types.NewError(types.CodeValidation, "auth.register", "a valid email is required", nil)
	}
	if len(in.Password) < 8 {
		return nil, types.NewError(types.CodeValidation, "auth.register", "password must be at least 8 characters", nil)
	}
	role := in.Role
	if role == "" {
		role = requestdata.RoleUser
	}
	// Admin accounts are provisioned out of band, never self-registered.
	if role != requestdata.RoleUser && role != requestdata.RoleDeveloper {
		return nil, types.NewError(types.CodeValidation, "auth.register", "role must be user or developer", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, types.NewError(types.CodeInternal, "auth.register", "hashing password", err)
	}

	var pair *TokenPair
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		exists, err := s.userRepo.EmailExists(dbc.Ctx, dbc.Tx, email)
		if err != nil {
			return err
		}
		if exists {
			return types.NewError(types.CodeConflict, "auth.register", "email already registered", nil)
		}
		created, err := s.userRepo.Create(dbc.Ctx, dbc.Tx, []*types.User{{
			ID:        uuid.New(),
			Email:     email,
			Password:  string(hashed),
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Role:      role,
		}})
		if err != nil {
			return err
		}
		pair, err = s.issueTokens(dbc, created[0])
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("User registered", "user_id", pair.User.ID, "role", role)
	return pair, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var pair *TokenPair
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		user, err := s.userRepo.GetByEmail(dbc.Ctx, dbc.Tx, email)
		if err != nil {
			if types.IsCode(err, types.CodeNotFound) {
				return types.NewError(types.CodeUnauthorized, "auth.login", "invalid credentials", nil)
			}
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
			return types.NewError(types.CodeUnauthorized, "auth.login", "invalid credentials", nil)
		}
		pair, err = s.issueTokens(dbc, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in", "user_id", pair.User.ID)
	return pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		stored, err := s.tokenRepo.GetByRefreshToken(dbc.Ctx, dbc.Tx, refreshToken)
		if err != nil {
			if types.IsCode(err, types.CodeNotFound) {
				return types.NewError(types.CodeUnauthorized, "auth.refresh", "invalid refresh token", nil)
			}
			return err
		}
		if time.Now().After(stored.ExpiresAt) {
			return types.NewError(types.CodeUnauthorized, "auth.refresh", "refresh token expired", nil)
		}
		user, err := s.userRepo.GetByID(dbc.Ctx, dbc.Tx, stored.UserID)
		if err != nil {
			return err
		}
		// Rotate: the presented token is spent.
		if err := s.tokenRepo.DeleteByUserID(dbc.Ctx, dbc.Tx, user.ID); err != nil {
			return err
		}
		pair, err = s.issueTokens(dbc, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.tokenRepo.DeleteByUserID(ctx, nil, userID)
}

func (s *authService) ParseAccessToken(tokenString string) (*requestdata.RequestData, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, types.NewError(types.CodeUnauthorized, "auth.parse_token", "invalid access token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, types.NewError(types.CodeUnauthorized, "auth.parse_token", "invalid token claims", nil)
	}
	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, types.NewError(types.CodeUnauthorized, "auth.parse_token", "invalid user id claim", err)
	}
	role, _ := claims["role"].(string)

	return &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        role,
	}, nil
}

func (s *authService) issueTokens(dbc dbctx.Context, user *types.User) (*TokenPair, error) {
	now := time.Now()
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(s.accessTTL).Unix(),
	})
	accessString, err := access.SignedString(s.jwtSecret)
	if err != nil {
		return nil, types.NewError(types.CodeInternal, "auth.issue_tokens", "signing access token", err)
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, types.NewError(types.CodeInternal, "auth.issue_tokens", "generating refresh token", err)
	}
	if _, err := s.tokenRepo.Create(dbc.Ctx, dbc.Tx, &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.refreshTTL),
	}); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessString, RefreshToken: refresh, User: user}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
