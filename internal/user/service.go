package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(username string) (string, time.Time, error)
}

type Service interface {
	Register(ctx context.Context, username, email, password string) (*User, error)
	Authenticate(ctx context.Context, username, password string) (string, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
}

type service struct {
	repo      Repository
	tokens    TokenIssuer
	cost      int
	dummyHash []byte
	now       func() time.Time
	logger    logrus.FieldLogger
}

func NewService(repo Repository, tokens TokenIssuer, bcryptCost int, logger logrus.FieldLogger) (Service, error) {
	// Compared against when the username is unknown so both failure paths
	// spend one bcrypt evaluation.
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare password hasher: %w", err)
	}

	return &service{
		repo:      repo,
		tokens:    tokens,
		cost:      bcryptCost,
		dummyHash: dummy,
		now:       time.Now,
		logger:    logger,
	}, nil
}

func (s *service) Register(ctx context.Context, username, email, password string) (*User, error) {
	taken, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateUsername
	}

	taken, err = s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}
	// A concurrent signup can still win the race; the unique constraints
	// report it as the same duplicate errors.
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user registered")
	return u, nil
}

func (s *service) Authenticate(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return "", err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(u.Username)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *service) FindByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}
