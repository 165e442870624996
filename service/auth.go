package service

import (
	"context"
	"errors"
	"log/slog"

	"expensetracker/ledger"
	"expensetracker/models"
	"expensetracker/repository"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer 签发访问令牌
type TokenIssuer interface {
	GenerateToken(username string) (string, error)
}

// RegisterInput 注册参数，初始余额单位为分
type RegisterInput struct {
	Username    string
	Password    string
	Email       string
	InitialBank int64
	InitialCash int64
}

// AuthService 注册、登录与令牌主体解析
type AuthService struct {
	store  *repository.Store
	tokens TokenIssuer
	log    *slog.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(store *repository.Store, tokens TokenIssuer, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{store: store, tokens: tokens, log: log.With("component", "auth")}
}

// Register 注册新用户，密码只保存 bcrypt 哈希
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := ledger.Check(ledger.Balances{Bank: in.InitialBank, Cash: in.InitialCash}); err != nil {
		return nil, ErrInvalidInitialBalance
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:       in.Username,
		HashedPassword: string(hashed),
		Email:          in.Email,
		IsActive:       true,
		BankBalance:    in.InitialBank,
		CashBalance:    in.InitialCash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate 校验用户名和密码
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// Login 校验凭据并签发令牌
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.log.WarnContext(ctx, "login failed", "username", username)
		}
		return "", err
	}
	return s.tokens.GenerateToken(user.Username)
}

// ResolveUser 根据令牌主体（用户名）查找启用中的用户
func (s *AuthService) ResolveUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// SetActive 启用或停用用户，停用后无法登录且已签发的令牌失效
func (s *AuthService) SetActive(ctx context.Context, username string, active bool) (*models.User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.IsActive == active {
		return user, nil
	}
	if err := s.store.SetUserActive(ctx, user.ID, active); err != nil {
		return nil, err
	}
	user.IsActive = active
	s.log.InfoContext(ctx, "user active state changed", "user_id", user.ID, "username", user.Username, "active", active)
	return user, nil
}
