package account

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/querygenie/querygenie/internal/store"
)

type fakeUsers struct {
	users      map[string]store.User
	nextID     int64
	phones     map[string]bool
	createdErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]store.User{}, phones: map[string]bool{}, nextID: 1}
}

func (f *fakeUsers) Create(_ context.Context, user store.User) (store.User, error) {
	if f.createdErr != nil {
		return store.User{}, f.createdErr
	}
	user.ID = f.nextID
	f.nextID++
	f.users[user.Email] = user
	f.users[user.Username] = user
	if user.Phone != "" {
		f.phones[user.Phone] = true
	}
	return user, nil
}

func (f *fakeUsers) GetByIdentifier(_ context.Context, identifier string) (store.User, error) {
	user, ok := f.users[identifier]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := f.users[email]
	return ok, nil
}

func (f *fakeUsers) PhoneExists(_ context.Context, phone string) (bool, error) {
	return f.phones[phone], nil
}

func (f *fakeUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	_, ok := f.users[username]
	return ok, nil
}

type fakeMailer struct {
	sent      []string
	delivered bool
}

func (f *fakeMailer) SendOTP(recipient string, _ string) bool {
	f.sent = append(f.sent, recipient)
	return f.delivered
}

func newTestService(users Users, otp *OTPStore, mailer Mailer) *Service {
	return NewService(users, otp, mailer, slog.New(slog.DiscardHandler))
}

func TestOTPIssueAndVerify(t *testing.T) {
	otp := NewOTPStore(5 * time.Minute)

	code, err := otp.Issue("a@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code = %q, want six digits", code)
	}

	if err := otp.Verify("a@example.com", code); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	// Consumed on success.
	if err := otp.Verify("a@example.com", code); !errors.Is(err, ErrOTPNotRequested) {
		t.Fatalf("second Verify() error = %v, want ErrOTPNotRequested", err)
	}
}

func TestOTPExpiry(t *testing.T) {
	otp := NewOTPStore(5 * time.Minute)
	current := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	otp.now = func() time.Time { return current }

	code, err := otp.Issue("a@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	current = current.Add(6 * time.Minute)
	if err := otp.Verify("a@example.com", code); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("Verify() error = %v, want ErrOTPExpired", err)
	}
}

func TestOTPWrongCode(t *testing.T) {
	otp := NewOTPStore(5 * time.Minute)
	if _, err := otp.Issue("a@example.com"); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if err := otp.Verify("a@example.com", "000000"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("Verify() error = %v, want ErrOTPInvalid", err)
	}
}

func TestSignupHappyPath(t *testing.T) {
	users := newFakeUsers()
	otp := NewOTPStore(5 * time.Minute)
	service := newTestService(users, otp, &fakeMailer{})

	code, err := otp.Issue("ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	user, err := service.Signup(context.Background(), SignupInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Gender:    "female",
		Username:  "ada",
		Password:  "s3cret",
		OTP:       code,
	})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if user.ID == 0 {
		t.Fatal("user.ID should be assigned")
	}
	if user.PasswordHash == "s3cret" {
		t.Fatal("password must not be stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestSignupRequiresOTP(t *testing.T) {
	service := newTestService(newFakeUsers(), NewOTPStore(5*time.Minute), &fakeMailer{})

	_, err := service.Signup(context.Background(), SignupInput{Email: "ada@example.com", OTP: "123456"})
	if !errors.Is(err, ErrOTPNotRequested) {
		t.Fatalf("Signup() error = %v, want ErrOTPNotRequested", err)
	}
}

func TestSignupUniqueness(t *testing.T) {
	users := newFakeUsers()
	otp := NewOTPStore(5 * time.Minute)
	service := newTestService(users, otp, &fakeMailer{})

	code, _ := otp.Issue("ada@example.com")
	if _, err := service.Signup(context.Background(), SignupInput{
		Email: "ada@example.com", Username: "ada", Phone: "123", Password: "x", OTP: code,
	}); err != nil {
		t.Fatalf("first Signup() error = %v", err)
	}

	tests := []struct {
		name  string
		input SignupInput
		want  error
	}{
		{"email", SignupInput{Email: "ada@example.com", Username: "other", Password: "x"}, ErrEmailTaken},
		{"phone", SignupInput{Email: "new@example.com", Phone: "123", Username: "other", Password: "x"}, ErrPhoneTaken},
		{"username", SignupInput{Email: "new@example.com", Username: "ada", Password: "x"}, ErrUsernameTaken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := otp.Issue(tc.input.Email)
			tc.input.OTP = code
			if _, err := service.Signup(context.Background(), tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("Signup() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	users := newFakeUsers()
	otp := NewOTPStore(5 * time.Minute)
	service := newTestService(users, otp, &fakeMailer{})

	code, _ := otp.Issue("ada@example.com")
	if _, err := service.Signup(context.Background(), SignupInput{
		Email: "ada@example.com", Username: "ada", Password: "s3cret", OTP: code,
	}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	if _, err := service.Login(context.Background(), "ada", "s3cret"); err != nil {
		t.Fatalf("Login() by username error = %v", err)
	}
	if _, err := service.Login(context.Background(), "ada@example.com", "s3cret"); err != nil {
		t.Fatalf("Login() by email error = %v", err)
	}
	if _, err := service.Login(context.Background(), "ada", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login() wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := service.Login(context.Background(), "ghost", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login() unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRequestOTPReportsDelivery(t *testing.T) {
	mailer := &fakeMailer{delivered: false}
	service := newTestService(newFakeUsers(), NewOTPStore(5*time.Minute), mailer)

	sent, err := service.RequestOTP("ada@example.com")
	if err != nil {
		t.Fatalf("RequestOTP() error = %v", err)
	}
	if sent {
		t.Fatal("RequestOTP() = true, want false for undelivered mail")
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "ada@example.com" {
		t.Fatalf("mailer.sent = %v", mailer.sent)
	}
}
