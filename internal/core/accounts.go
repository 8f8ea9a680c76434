package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"example.com/blog-api/internal/logging"
	"example.com/blog-api/internal/platform/password"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

type TokenIssuer interface {
	Issue(id Identity, ttl time.Duration) (string, time.Time, error)
}

const defaultUserListLimit = 10

type SignUpInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	// RequestedRole is whatever role the client tried to send. It is
	// never honoured; sign-up always creates RoleUser accounts.
	RequestedRole string
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Profile   Profile
}

type AccountService struct {
	accounts AccountStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	tokenTTL time.Duration
	logger   logging.Logger
}

func NewAccountService(accounts AccountStore, hasher PasswordHasher, tokens TokenIssuer, tokenTTL time.Duration, logger logging.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (s *AccountService) SignUp(ctx context.Context, in SignUpInput) (Profile, error) {
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	email := NormalizeEmail(in.Email)
	if first == "" || last == "" || email == "" {
		return Profile{}, BadRequest("First Name, Last Name and Email are required!")
	}
	if in.Password == "" {
		return Profile{}, BadRequest("Password is missing!")
	}
	if in.RequestedRole != "" {
		s.logger.Warn(ctx, "Ignoring client supplied role at sign-up", "email", email, "role", in.RequestedRole)
	}

	if _, err := s.accounts.ByEmail(ctx, email); err == nil {
		return Profile{}, BadRequest("Email already exists!")
	} else if !errors.Is(err, ErrNotFound) {
		s.logger.Error(ctx, "Failed to check existing account", "email", email, "error", err)
		return Profile{}, Internal(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return Profile{}, BadRequest("Password is too long!")
		}
		s.logger.Error(ctx, "Failed to hash password", "email", email, "error", err)
		return Profile{}, Internal(err)
	}

	acc := &Account{
		FirstName:    first,
		LastName:     last,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		// a concurrent sign-up won the race; the store constraint caught it
		if errors.Is(err, ErrDuplicateEmail) {
			return Profile{}, BadRequest("Email already exists!")
		}
		s.logger.Error(ctx, "Failed to create account", "email", email, "error", err)
		return Profile{}, Internal(err)
	}

	s.logger.Info(ctx, "Account created", "account_id", acc.ID, "email", email)
	return acc.Profile(), nil
}

// Login verifies the password and issues a credential token. An unknown
// email is reported as 404 and a bad password as 401, so the two cases are
// distinguishable by clients.
func (s *AccountService) Login(ctx context.Context, email, plain string) (Session, error) {
	email = NormalizeEmail(email)
	if email == "" || plain == "" {
		return Session{}, BadRequest("Email or Password is missing!")
	}

	acc, err := s.accounts.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn(ctx, "Login for unknown email", "email", email)
			return Session{}, NotFound(fmt.Sprintf("User with email %s not found!", email))
		}
		s.logger.Error(ctx, "Failed to get account by email", "email", email, "error", err)
		return Session{}, Internal(err)
	}

	ok, err := s.hasher.Verify(plain, acc.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "Stored password digest is unusable", "account_id", acc.ID, "error", err)
		return Session{}, Internal(err)
	}
	if !ok {
		s.logger.Warn(ctx, "Invalid password", "account_id", acc.ID)
		return Session{}, Unauthorized("Password is incorrect!")
	}

	token, exp, err := s.tokens.Issue(acc.Identity(), s.tokenTTL)
	if err != nil {
		s.logger.Error(ctx, "Failed to issue token", "account_id", acc.ID, "error", err)
		return Session{}, Internal(err)
	}

	s.logger.Info(ctx, "Login successful", "account_id", acc.ID)
	return Session{Token: token, ExpiresAt: exp, Profile: acc.Profile()}, nil
}

// Get returns the profile with the given id. Users may only read their own
// profile; admins may read any.
func (s *AccountService) Get(ctx context.Context, caller Identity, id string) (Profile, error) {
	if !caller.IsAdmin() && caller.AccountID != id {
		return Profile{}, Forbidden("Access Denied, you are not allowed to access this resource!")
	}
	acc, err := s.accounts.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{}, NotFound("User not found!")
		}
		return Profile{}, Internal(err)
	}
	return acc.Profile(), nil
}

// List returns profiles, filtered to a single email when one is given.
func (s *AccountService) List(ctx context.Context, email string, limit int) ([]Profile, error) {
	if email != "" {
		acc, err := s.accounts.ByEmail(ctx, NormalizeEmail(email))
		if errors.Is(err, ErrNotFound) {
			return []Profile{}, nil
		}
		if err != nil {
			return nil, Internal(err)
		}
		return []Profile{acc.Profile()}, nil
	}

	if limit <= 0 {
		limit = defaultUserListLimit
	}
	accs, err := s.accounts.List(ctx, limit)
	if err != nil {
		return nil, Internal(err)
	}
	if len(accs) == 0 {
		return nil, NotFound("No users found")
	}
	out := make([]Profile, 0, len(accs))
	for i := range accs {
		out = append(out, accs[i].Profile())
	}
	return out, nil
}

func (s *AccountService) Count(ctx context.Context) (int, error) {
	n, err := s.accounts.Count(ctx)
	if err != nil {
		return 0, Internal(err)
	}
	return n, nil
}

// EnsureAdmin creates an admin account from operator configuration if the
// email is not registered yet. This is the only way an admin comes to exist.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, plain string) error {
	email = NormalizeEmail(email)
	acc, err := s.accounts.ByEmail(ctx, email)
	if err == nil {
		if acc.Role != RoleAdmin {
			s.logger.Warn(ctx, "Admin seed email belongs to a non-admin account", "account_id", acc.ID)
		}
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	acc = &Account{
		FirstName:    "Site",
		LastName:     "Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         RoleAdmin,
	}
	if err := s.accounts.Create(ctx, acc); err != nil && !errors.Is(err, ErrDuplicateEmail) {
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	s.logger.Info(ctx, "Admin account seeded", "account_id", acc.ID)
	return nil
}
