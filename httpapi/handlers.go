package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	authcore "github.com/lernhub/authcore"
)

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type otpRequest struct {
	OTPID string `json:"otpId"`
	Code  string `json:"code"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type registerRequest struct {
	OTPID   string                     `json:"otpId"`
	Code    string                     `json:"code"`
	MedData authcore.RegistrationInput `json:"medData"`
}

type resetRequest struct {
	OTPID       string `json:"otpId"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	UserID          string `json:"userId"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type userEnvelope struct {
	User  *authcore.SanitizedUser `json:"user"`
	Token *string                 `json:"token"`
}

type messageResponse struct {
	Message string        `json:"message"`
	Data    *userEnvelope `json:"data,omitempty"`
}

type mfaRequiredResponse struct {
	Message     string    `json:"message"`
	MFARequired bool      `json:"mfaRequired"`
	OTPID       string    `json:"otpId"`
	MaskedEmail string    `json:"maskedEmail"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type challengeResponse struct {
	OTPID       string    `json:"otpId"`
	MaskedEmail string    `json:"maskedEmail"`
	Email       string    `json:"email,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.engine.Login(r.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.MFARequired {
		writeJSON(w, http.StatusOK, mfaRequiredResponse{
			Message:     "OTP required",
			MFARequired: true,
			OTPID:       result.Challenge.OTPID,
			MaskedEmail: result.Challenge.MaskedEmail,
			Email:       result.Challenge.Email,
			ExpiresAt:   result.Challenge.ExpiresAt,
		})
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Login successful",
		Data:    &userEnvelope{User: result.User},
	})
}

func (h *Handler) verifyLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.engine.VerifyLoginOTP(r.Context(), req.OTPID, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Login successful",
		Data:    &userEnvelope{User: result.User},
	})
}

func (h *Handler) resendLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	challenge, err := h.engine.ResendLoginOTP(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challengeResponse{
		OTPID:       challenge.OTPID,
		MaskedEmail: challenge.MaskedEmail,
		Email:       challenge.Email,
		ExpiresAt:   challenge.ExpiresAt,
	})
}

func (h *Handler) requestRegistrationOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	challenge, err := h.engine.ResendRegistrationOTP(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challengeResponse{
		OTPID:       challenge.OTPID,
		MaskedEmail: challenge.MaskedEmail,
		ExpiresAt:   challenge.ExpiresAt,
	})
}

func (h *Handler) verifyAndRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.engine.VerifyAndRegister(r.Context(), req.MedData, req.OTPID, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{
		Message: "Registration successful",
		Data:    &userEnvelope{User: user},
	})
}

func (h *Handler) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	challenge, err := h.engine.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challengeResponse{
		OTPID:       challenge.OTPID,
		MaskedEmail: challenge.MaskedEmail,
		ExpiresAt:   challenge.ExpiresAt,
	})
}

func (h *Handler) resendPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	challenge, err := h.engine.ResendPasswordResetOTP(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challengeResponse{
		OTPID:       challenge.OTPID,
		MaskedEmail: challenge.MaskedEmail,
		ExpiresAt:   challenge.ExpiresAt,
	})
}

func (h *Handler) verifyPasswordResetOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.engine.VerifyPasswordResetOTP(r.Context(), req.OTPID, req.Code); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "OTP verified"})
}

func (h *Handler) resetPasswordWithOTP(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.engine.ResetPasswordWithOTP(r.Context(), req.OTPID, req.Code, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Password reset successful"})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.engine.ChangePassword(r.Context(), req.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Password changed successfully"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	var cooldown *authcore.CooldownError
	if errors.As(err, &cooldown) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Message: fmt.Sprintf("Please wait %d seconds before requesting a new code", cooldown.SecondsRemaining()),
		})
		return
	}

	var invalidCode *authcore.InvalidCodeError
	if errors.As(err, &invalidCode) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: fmt.Sprintf("Invalid code, %d attempts remaining", invalidCode.AttemptsRemaining),
		})
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, authcore.ErrInvalidInput):
		status, message = http.StatusBadRequest, "Missing or invalid fields"
	case errors.Is(err, authcore.ErrPasswordPolicy):
		status, message = http.StatusBadRequest, "Password does not meet the policy"
	case errors.Is(err, authcore.ErrOTPNotFound):
		status, message = http.StatusBadRequest, "Code is invalid or already used"
	case errors.Is(err, authcore.ErrOTPExpired):
		status, message = http.StatusBadRequest, "Code has expired"
	case errors.Is(err, authcore.ErrOTPEmailMismatch):
		status, message = http.StatusBadRequest, "Code was issued for a different email"
	case errors.Is(err, authcore.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, authcore.ErrAccountDisabled):
		status, message = http.StatusForbidden, "Account is disabled"
	case errors.Is(err, authcore.ErrUserNotFound):
		status, message = http.StatusNotFound, "User not found"
	case errors.Is(err, authcore.ErrEmailAlreadyRegistered):
		status, message = http.StatusConflict, "Email is already registered"
	case errors.Is(err, authcore.ErrUsernameTaken):
		status, message = http.StatusConflict, "Username is already taken"
	case errors.Is(err, authcore.ErrOTPCooldown):
		status, message = http.StatusTooManyRequests, "Please wait before requesting a new code"
	case errors.Is(err, authcore.ErrOTPAttemptsExceeded):
		status, message = http.StatusTooManyRequests, "Too many attempts, request a new code"
	case errors.Is(err, authcore.ErrNotifierDelivery):
		status, message = http.StatusInternalServerError, "Could not deliver the verification code"
	}

	writeJSON(w, status, errorResponse{Message: message})
}
