package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"LIBRA-backend/internal/platform/apierr"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (LoginResponse, error)
	CreateUser(ctx context.Context, in UserForm) (UserResponse, error)
	UpdateUser(ctx context.Context, username string, in UserForm) (UserResponse, error)
	GetUser(ctx context.Context, username string) (UserResponse, error)
	TTL() time.Duration
}

type Service struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func NewService(db *sql.DB, secret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{store: NewStore(db), secret: secret, ttl: ttl, cost: bcrypt.DefaultCost, now: time.Now}
}

func (s *Service) TTL() time.Duration { return s.ttl }

func (s *Service) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResponse{}, apierr.Invalid("username and password are required")
	}
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		logrus.WithError(err).WithField("username", username).Error("load user failed")
		return LoginResponse{}, apierr.Storage(err)
	}
	// ユーザー不在とパスワード違いは同じ応答にする
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return LoginResponse{}, apierr.Unauthorized("Invalid username or password")
	}
	if !u.IsActive {
		return LoginResponse{}, apierr.Forbidden("User is inactive")
	}

	now := s.now()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.Username,
		"role": u.Role,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return LoginResponse{}, apierr.Storage(err)
	}
	logrus.WithFields(logrus.Fields{"username": u.Username, "role": u.Role}).Info("login")
	return LoginResponse{Username: u.Username, Role: u.Role, Token: signed, ExpiresAt: exp.UTC().Format(time.RFC3339)}, nil
}

func (s *Service) CreateUser(ctx context.Context, in UserForm) (UserResponse, error) {
	u, err := s.userFrom(in.Username, in)
	if err != nil {
		return UserResponse{}, err
	}
	if err := s.store.Create(ctx, u); err != nil {
		if apierr.IsDuplicate(err) {
			return UserResponse{}, apierr.Conflict("username already exists")
		}
		logrus.WithError(err).WithField("username", u.Username).Error("create user failed")
		return UserResponse{}, apierr.Storage(err)
	}
	logrus.WithFields(logrus.Fields{"username": u.Username, "role": u.Role}).Info("user added")
	return UserResponse{Message: "User added", Username: u.Username, Role: u.Role, IsActive: u.IsActive}, nil
}

func (s *Service) UpdateUser(ctx context.Context, username string, in UserForm) (UserResponse, error) {
	u, err := s.userFrom(username, in)
	if err != nil {
		return UserResponse{}, err
	}
	n, err := s.store.Update(ctx, u)
	if err != nil {
		logrus.WithError(err).WithField("username", u.Username).Error("update user failed")
		return UserResponse{}, apierr.Storage(err)
	}
	if n == 0 {
		return UserResponse{}, apierr.NotFound("User not found")
	}
	logrus.WithFields(logrus.Fields{"username": u.Username, "role": u.Role, "is_active": u.IsActive}).Info("user updated")
	return UserResponse{Message: "User updated", Username: u.Username, Role: u.Role, IsActive: u.IsActive}, nil
}

func (s *Service) GetUser(ctx context.Context, username string) (UserResponse, error) {
	u, err := s.store.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return UserResponse{}, apierr.Storage(err)
	}
	if u == nil {
		return UserResponse{}, apierr.NotFound("User not found")
	}
	return UserResponse{Username: u.Username, Role: u.Role, IsActive: u.IsActive}, nil
}

func (s *Service) userFrom(username string, in UserForm) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || in.Password == "" {
		return nil, apierr.Invalid("username and password are required")
	}
	isAdmin, ok := parseFlag(in.IsAdmin, false)
	if !ok {
		return nil, apierr.Invalid("is_admin must be a boolean")
	}
	isActive, ok := parseFlag(in.IsActive, true)
	if !ok {
		return nil, apierr.Invalid("is_active must be a boolean")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		// 72 バイト超など
		return nil, apierr.Invalid("password cannot be hashed")
	}
	role := RoleUser
	if isAdmin {
		role = RoleAdmin
	}
	return &User{Username: username, PasswordHash: string(hash), Role: role, IsActive: isActive}, nil
}

// フォームのチェックボックスは "on" で来る
func parseFlag(v string, def bool) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return def, true
	case "true", "1", "on", "yes":
		return true, true
	case "false", "0", "off", "no":
		return false, true
	}
	return false, false
}
