package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/querygenie/querygenie/internal/account"
)

type sendOTPRequest struct {
	Email string `json:"email"`
}

type signupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	OTP       string `json:"otp"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type userProfile struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Gender    string `json:"gender"`
}

func handleSendOTP(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var request sendOTPRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, nil)
		return
	}
	if !strings.Contains(request.Email, "@") {
		writeError(r.Context(), w, http.StatusBadRequest, "EMAIL_INVALID", "a valid email address is required", false, nil)
		return
	}

	mailed, err := deps.Accounts.RequestOTP(request.Email)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "OTP_FAILED", "failed to issue verification code", true, nil)
		return
	}

	message := "OTP has been sent to your email."
	if !mailed {
		message = "Email sending unavailable; check server logs for OTP."
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

func handleSignup(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var request signupRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, nil)
		return
	}
	if request.Email == "" || request.Username == "" || request.Password == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "FIELDS_REQUIRED", "email, username, and password are required", false, nil)
		return
	}

	_, err := deps.Accounts.Signup(r.Context(), account.SignupInput{
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Email:     request.Email,
		Phone:     request.Phone,
		Gender:    request.Gender,
		Username:  request.Username,
		Password:  request.Password,
		OTP:       request.OTP,
	})
	if err != nil {
		status, code := signupFailure(err)
		writeError(r.Context(), w, status, code, err.Error(), false, nil)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "User created successfully"})
}

func signupFailure(err error) (int, string) {
	switch {
	case errors.Is(err, account.ErrOTPNotRequested):
		return http.StatusBadRequest, "OTP_NOT_REQUESTED"
	case errors.Is(err, account.ErrOTPExpired):
		return http.StatusBadRequest, "OTP_EXPIRED"
	case errors.Is(err, account.ErrOTPInvalid):
		return http.StatusBadRequest, "OTP_INVALID"
	case errors.Is(err, account.ErrEmailTaken):
		return http.StatusBadRequest, "EMAIL_TAKEN"
	case errors.Is(err, account.ErrPhoneTaken):
		return http.StatusBadRequest, "PHONE_TAKEN"
	case errors.Is(err, account.ErrUsernameTaken):
		return http.StatusBadRequest, "USERNAME_TAKEN"
	default:
		return http.StatusInternalServerError, "SIGNUP_FAILED"
	}
}

func handleLogin(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var request loginRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, nil)
		return
	}

	user, err := deps.Accounts.Login(r.Context(), request.Identifier, request.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			writeError(r.Context(), w, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error(), false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "LOGIN_FAILED", "login failed", true, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"user": userProfile{
			ID:        user.ID,
			Email:     user.Email,
			Phone:     user.Phone,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Username:  user.Username,
			Gender:    user.Gender,
		},
	})
}

func decodeBody(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(target)
}
