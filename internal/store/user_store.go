package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mvoronin/pos-ledger/internal/domain"
	"github.com/mvoronin/pos-ledger/internal/logger"
)

const userFieldCount = 3

// UserStore keeps operator accounts in a pipe-delimited file:
// username|passwordHash|role. Passwords are stored as bcrypt hashes.
// Like the product store it rewrites the whole file on mutation.
type UserStore struct {
	path string
}

// NewUserStore returns a store backed by the given file path.
func NewUserStore(path string) *UserStore {
	return &UserStore{path: path}
}

// LoadAll returns all accounts in storage order. Malformed lines are
// skipped with a warning; a missing file yields an empty list.
func (s *UserStore) LoadAll(ctx context.Context) ([]domain.User, error) {
	log := logger.FromContext(ctx)

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("UserStore.LoadAll: open %q: %w", s.path, err)
	}
	defer f.Close()

	var users []domain.User
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		u, err := parseUser(line)
		if err != nil {
			log.Warn().Str("line", line).Err(err).Msg("Skipping malformed user line")
			continue
		}
		users = append(users, u)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("UserStore.LoadAll: read %q: %w", s.path, err)
	}
	return users, nil
}

// FindByUsername returns the account with the given username, or ErrNotFound.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	users, err := s.LoadAll(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("UserStore.FindByUsername: user %q: %w", username, ErrNotFound)
}

// Add creates a new account with a freshly hashed password. Fails with
// ErrDuplicateKey if the username is taken.
func (s *UserStore) Add(ctx context.Context, username, password string, role domain.Role) error {
	users, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == username {
			return fmt.Errorf("UserStore.Add: user %q: %w", username, ErrDuplicateKey)
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("UserStore.Add: hash password: %w", err)
	}
	users = append(users, domain.User{Username: username, PasswordHash: string(hash), Role: role})
	return s.saveAll(users)
}

// Authenticate verifies the password for the given username. It returns
// ErrInvalidCredentials for both an unknown user and a wrong password so
// callers cannot distinguish the two.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	u, err := s.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureDefaultAdmin creates an admin account with the given credentials
// when the store holds no users at all.
func (s *UserStore) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	log := logger.FromContext(ctx)

	users, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}
	if err := s.Add(ctx, username, password, domain.RoleAdmin); err != nil {
		return fmt.Errorf("UserStore.EnsureDefaultAdmin: %w", err)
	}
	log.Info().Str("username", username).Msg("Created default admin user")
	return nil
}

func (s *UserStore) saveAll(users []domain.User) error {
	var b strings.Builder
	for _, u := range users {
		b.WriteString(strings.Join([]string{u.Username, u.PasswordHash, string(u.Role)}, fieldDelimiter))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("UserStore: rewrite %q: %w", s.path, err)
	}
	return nil
}

func parseUser(line string) (domain.User, error) {
	parts := strings.Split(line, fieldDelimiter)
	if len(parts) != userFieldCount {
		return domain.User{}, fmt.Errorf("expected %d fields, got %d", userFieldCount, len(parts))
	}
	role, err := domain.ParseRole(parts[2])
	if err != nil {
		return domain.User{}, fmt.Errorf("role: %w", err)
	}
	return domain.User{Username: parts[0], PasswordHash: parts[1], Role: role}, nil
}
