package account

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// OTPStore keeps pending verification codes in memory, keyed by email.
// Issuing a new code replaces any previous one for the same address. Codes
// do not survive a restart, matching their short lifetime.
type OTPStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	codes map[string]otpEntry
}

type otpEntry struct {
	code      string
	expiresAt time.Time
}

func NewOTPStore(ttl time.Duration) *OTPStore {
	return &OTPStore{
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
		codes: make(map[string]otpEntry),
	}
}

// Issue generates a six digit code for the email and stores it with the
// configured expiry.
func (s *OTPStore) Issue(email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+100000)

	s.mu.Lock()
	s.codes[email] = otpEntry{code: code, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return code, nil
}

// Verify checks the code for the email. A matching, unexpired code is
// consumed; expired codes are dropped.
func (s *OTPStore) Verify(email string, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[email]
	if !ok {
		return ErrOTPNotRequested
	}
	if s.now().After(entry.expiresAt) {
		delete(s.codes, email)
		return ErrOTPExpired
	}
	if entry.code != code {
		return ErrOTPInvalid
	}
	delete(s.codes, email)
	return nil
}
