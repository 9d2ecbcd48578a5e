// Package account implements signup with email verification, and login by
// email or username. Passwords are stored as bcrypt hashes.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/querygenie/querygenie/internal/store"
)

var (
	ErrOTPNotRequested    = errors.New("OTP not requested or expired")
	ErrOTPExpired         = errors.New("OTP has expired")
	ErrOTPInvalid         = errors.New("invalid OTP provided")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("incorrect email/username or password")
)

// Users is the slice of the store the service needs.
type Users interface {
	Create(ctx context.Context, user store.User) (store.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (store.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Gender    string
	Username  string
	Password  string
	OTP       string
}

type Service struct {
	users  Users
	otp    *OTPStore
	mailer Mailer
	logger *slog.Logger
}

func NewService(users Users, otp *OTPStore, mailer Mailer, logger *slog.Logger) *Service {
	return &Service{users: users, otp: otp, mailer: mailer, logger: logger}
}

// RequestOTP issues a verification code for the email and tries to mail it.
// Reports whether the mail went out; the code is stored either way.
func (s *Service) RequestOTP(email string) (bool, error) {
	code, err := s.otp.Issue(email)
	if err != nil {
		return false, err
	}
	return s.mailer.SendOTP(email, code), nil
}

// Signup verifies the OTP, enforces uniqueness of email, phone, and
// username, and creates the account.
func (s *Service) Signup(ctx context.Context, in SignupInput) (store.User, error) {
	if err := s.otp.Verify(in.Email, in.OTP); err != nil {
		return store.User{}, err
	}

	if taken, err := s.users.EmailExists(ctx, in.Email); err != nil {
		return store.User{}, err
	} else if taken {
		return store.User{}, ErrEmailTaken
	}
	if in.Phone != "" {
		if taken, err := s.users.PhoneExists(ctx, in.Phone); err != nil {
			return store.User{}, err
		} else if taken {
			return store.User{}, ErrPhoneTaken
		}
	}
	if taken, err := s.users.UsernameExists(ctx, in.Username); err != nil {
		return store.User{}, err
	} else if taken {
		return store.User{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, store.User{
		Email:        in.Email,
		Phone:        in.Phone,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Gender:       in.Gender,
		Username:     in.Username,
		PasswordHash: string(hash),
	})
	if err != nil {
		return store.User{}, err
	}

	s.logger.Info("user created", slog.String("username", user.Username))
	return user, nil
}

// Login authenticates by email or username. A missing user and a wrong
// password produce the same error.
func (s *Service) Login(ctx context.Context, identifier string, password string) (store.User, error) {
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, ErrInvalidCredentials
		}
		return store.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}
