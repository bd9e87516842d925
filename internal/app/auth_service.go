package app

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"studyassist/internal/model"
	"studyassist/internal/pkg/jwtutil"
	"studyassist/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrUserInactive      = errors.New("user is inactive")
	ErrAuthDisabled      = errors.New("authentication is disabled")
	ErrUserNotFound      = errors.New("user not found")
)

const (
	demoUsername = "demo"
	demoEmail    = "demo@example.com"
)

type AuthService struct {
	userRepo      *repository.UserRepository
	docRepo       *repository.DocumentRepository
	authEnabled   bool
	jwtSecret     string
	jwtExpiration time.Duration

	demoOnce sync.Once
	demoUser *model.User
	demoErr  error
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token string
	User  *model.User
}

// Profile is the user plus their document count.
type Profile struct {
	User          *model.User `json:"user"`
	DocumentCount int64       `json:"document_count"`
}

func NewAuthService(
	userRepo *repository.UserRepository,
	docRepo *repository.DocumentRepository,
	authEnabled bool,
	jwtSecret string,
	jwtExpiration time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		docRepo:       docRepo,
		authEnabled:   authEnabled,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	if !s.authEnabled {
		return nil, ErrAuthDisabled
	}

	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)

	if username == "" || email == "" || password == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}

	existingByName, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrUsernameExists
	}

	existingByEmail, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Login issues a token for the demo user when auth is disabled, so the
// rest of the API works without accounts.
func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	if !s.authEnabled {
		demo, err := s.DemoUser()
		if err != nil {
			return nil, err
		}
		token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, demo.ID, demo.Username)
		if err != nil {
			return nil, err
		}
		return &AuthResult{Token: token, User: demo}, nil
	}

	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) GetProfile(userID string) (*Profile, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	count, err := s.docRepo.CountByOwnerID(userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, DocumentCount: count}, nil
}

// DemoUser returns the shared demo account, creating it on first use.
func (s *AuthService) DemoUser() (*model.User, error) {
	s.demoOnce.Do(func() {
		user, err := s.userRepo.GetByUsername(demoUsername)
		if err != nil {
			s.demoErr = err
			return
		}
		if user == nil {
			user = &model.User{
				Username:     demoUsername,
				Email:        demoEmail,
				PasswordHash: "-",
				IsActive:     true,
			}
			if err := s.userRepo.Create(user); err != nil {
				s.demoErr = err
				return
			}
		}
		s.demoUser = user
	})
	return s.demoUser, s.demoErr
}
