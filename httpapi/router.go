package httpapi

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	authcore "github.com/lernhub/authcore"
)

// Handler bridges HTTP requests to an [authcore.Engine]. Field names and
// status codes in its responses are part of the client contract and must
// not change.
type Handler struct {
	engine *authcore.Engine
}

// NewHandler wraps an engine for HTTP exposure.
func NewHandler(engine *authcore.Engine) *Handler {
	return &Handler{engine: engine}
}

// Router assembles the authentication routes under /auth.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(clientIPContext)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/login/verify-otp", h.verifyLoginOTP)
		r.Post("/login/resend-otp", h.resendLoginOTP)

		r.Post("/register/request-otp", h.requestRegistrationOTP)
		r.Post("/register/resend-otp", h.requestRegistrationOTP)
		r.Post("/register/verify", h.verifyAndRegister)

		r.Post("/password-reset/request", h.requestPasswordReset)
		r.Post("/password-reset/resend", h.resendPasswordReset)
		r.Post("/password-reset/verify-otp", h.verifyPasswordResetOTP)
		r.Post("/password-reset/reset", h.resetPasswordWithOTP)

		r.Post("/change-password", h.changePassword)
	})

	return r
}

// clientIPContext records the caller's address for audit emission.
func clientIPContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if ip != "" {
			r = r.WithContext(authcore.WithClientIP(r.Context(), ip))
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
