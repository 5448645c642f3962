package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginBlocked       = errors.New("too many failed attempts")
	ErrNotConfigured      = errors.New("owner login is not configured")
)

const (
	MaxAttempts   = 3
	BlockDuration = 15 * time.Minute
)

// BlockedError is returned while an email is locked out.
type BlockedError struct {
	Until time.Time
}

func (e *BlockedError) Error() string {
	return ErrLoginBlocked.Error()
}

func (e *BlockedError) Unwrap() error { return ErrLoginBlocked }

// Owner holds the single owner account's credentials.
type Owner struct {
	Email        string
	PasswordHash string
	AccessCode   string
}

type attempts struct {
	failures     int
	blockedUntil time.Time
}

// Gate checks owner credentials and locks an email out for BlockDuration
// after MaxAttempts consecutive failures.
type Gate struct {
	owner   Owner
	now     func() time.Time
	compare func(hash, password []byte) error

	mu       sync.Mutex
	attempts map[string]*attempts
}

func NewGate(owner Owner) *Gate {
	return &Gate{
		owner:    owner,
		now:      time.Now,
		compare:  bcrypt.CompareHashAndPassword,
		attempts: make(map[string]*attempts),
	}
}

// Check verifies email, password and access code. It returns a *BlockedError
// while the email is locked out, even for correct credentials. The password
// comparison runs without holding the lock.
func (g *Gate) Check(email, password, accessCode string) error {
	if g.owner.PasswordHash == "" {
		return ErrNotConfigured
	}
	key := strings.ToLower(strings.TrimSpace(email))

	if err := g.blocked(key, g.now()); err != nil {
		return err
	}

	ok := g.valid(key, password, accessCode)

	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()

	// a concurrent failure may have locked the email while bcrypt ran
	a := g.attempts[key]
	if a != nil && now.Before(a.blockedUntil) {
		return &BlockedError{Until: a.blockedUntil}
	}

	if ok {
		delete(g.attempts, key)
		return nil
	}

	if a == nil || !a.blockedUntil.IsZero() {
		// first failure, or the previous block has expired
		a = &attempts{}
		g.attempts[key] = a
	}
	a.failures++
	if a.failures >= MaxAttempts {
		a.blockedUntil = now.Add(BlockDuration)
		return &BlockedError{Until: a.blockedUntil}
	}
	return ErrInvalidCredentials
}

func (g *Gate) blocked(key string, now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if a := g.attempts[key]; a != nil && now.Before(a.blockedUntil) {
		return &BlockedError{Until: a.blockedUntil}
	}
	return nil
}

// Remaining returns how many attempts email has before it is blocked.
func (g *Gate) Remaining(email string) int {
	key := strings.ToLower(strings.TrimSpace(email))
	g.mu.Lock()
	defer g.mu.Unlock()
	a := g.attempts[key]
	switch {
	case a == nil:
		return MaxAttempts
	case g.now().Before(a.blockedUntil):
		return 0
	case !a.blockedUntil.IsZero():
		return MaxAttempts
	}
	return MaxAttempts - a.failures
}

func (g *Gate) valid(email, password, accessCode string) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(strings.ToLower(g.owner.Email))) == 1
	// bcrypt runs on every attempt, whatever the email
	pwOK := g.compare([]byte(g.owner.PasswordHash), []byte(password)) == nil
	codeOK := g.owner.AccessCode == "" ||
		subtle.ConstantTimeCompare([]byte(accessCode), []byte(g.owner.AccessCode)) == 1
	return emailOK && pwOK && codeOK
}

// HashPassword returns the bcrypt hash stored in OWNER_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
