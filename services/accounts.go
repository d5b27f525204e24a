package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"catalog/apperr"
	"catalog/auth"
	"catalog/models"

	"gorm.io/gorm"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

type Session struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expiresAt"`
	Account   *models.Credentials `json:"account"`
}

// account is implemented by *models.Admin and *models.User.
type account interface {
	Account() *models.Credentials
}

func newAccount(role models.Role) (account, error) {
	switch role {
	case models.RoleAdmin:
		return &models.Admin{}, nil
	case models.RoleUser:
		return &models.User{}, nil
	default:
		return nil, apperr.Validation("unknown role %q", role)
	}
}

type AccountService struct {
	db     *gorm.DB
	tokens *auth.TokenManager
}

func NewAccountService(db *gorm.DB, tokens *auth.TokenManager) *AccountService {
	return &AccountService{db: db, tokens: tokens}
}

func (s *AccountService) AdminExists(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error; err != nil {
		return false, apperr.Internal(err, "count admins")
	}
	return count > 0, nil
}

func (s *AccountService) Register(ctx context.Context, role models.Role, in RegisterInput) (*models.Credentials, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	acc, err := newAccount(role)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(acc).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, apperr.Internal(err, "check email")
	}
	if count > 0 {
		return nil, apperr.Conflict("email %s is already registered", in.Email)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "hash password")
	}
	cred := acc.Account()
	cred.Name = strings.TrimSpace(in.Name)
	cred.Email = in.Email
	cred.Password = hash
	cred.Role = role
	if err := s.db.WithContext(ctx).Create(acc).Error; err != nil {
		return nil, apperr.Internal(err, "create account")
	}
	return cred, nil
}

func (s *AccountService) Login(ctx context.Context, role models.Role, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	acc, err := newAccount(role)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Auth("invalid email or password")
		}
		return nil, apperr.Internal(err, "find account")
	}
	cred := acc.Account()
	if !auth.CheckPassword(cred.Password, in.Password) {
		return nil, apperr.Auth("invalid email or password")
	}
	token, exp, err := s.tokens.Issue(cred)
	if err != nil {
		return nil, apperr.Internal(err, "issue token")
	}
	return &Session{Token: token, ExpiresAt: exp, Account: cred}, nil
}

// Find loads the account behind a token's claims.
func (s *AccountService) Find(ctx context.Context, claims *auth.Claims) (*models.Credentials, error) {
	id, err := claims.AccountID()
	if err != nil {
		return nil, apperr.Auth("invalid token subject")
	}
	acc, err := newAccount(claims.Role)
	if err != nil {
		return nil, apperr.Auth("invalid token role")
	}
	if err := s.db.WithContext(ctx).First(acc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Auth("account no longer exists")
		}
		return nil, apperr.Internal(err, "find account")
	}
	return acc.Account(), nil
}

func (s *AccountService) ChangePassword(ctx context.Context, claims *auth.Claims, in PasswordChange) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	cred, err := s.Find(ctx, claims)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(cred.Password, in.CurrentPassword) {
		return apperr.Validation("current password is incorrect")
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return apperr.Internal(err, "hash password")
	}
	acc, _ := newAccount(claims.Role)
	if err := s.db.WithContext(ctx).Model(acc).Where("id = ?", cred.ID).Update("password", hash).Error; err != nil {
		return apperr.Internal(err, "update password")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
