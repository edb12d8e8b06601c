package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/nawabco/waitlist/internal/handler/dto"
	"github.com/nawabco/waitlist/internal/middleware"
	"github.com/nawabco/waitlist/internal/service"
)

// Signup response messages.
const (
	MsgInvalidBody      = "Invalid request body"
	MsgEmailRequired    = "Email is required"
	MsgInvalidEmail     = "Invalid email format"
	MsgRateLimited      = "Please wait a few seconds before trying again"
	MsgDuplicateEmail   = "This email is already on the waitlist"
	MsgInternalError    = "An error occurred while processing your request"
	MsgJoined           = "Successfully joined! Check your email for confirmation."
	MsgJoinedEmailDelay = "Successfully joined! Email confirmation may be delayed."
)

// SignupHandler handles POST /api/signup.
type SignupHandler struct {
	svc    *service.SignupService
	logger *slog.Logger
	// debug adds the underlying error text to responses.
	debug bool
}

// NewSignupHandler creates a new SignupHandler. debug should only be true in
// development.
func NewSignupHandler(svc *service.SignupService, logger *slog.Logger, debug bool) *SignupHandler {
	return &SignupHandler{
		svc:    svc,
		logger: logger,
		debug:  debug,
	}
}

// Signup handles POST /api/signup.
func (h *SignupHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, MsgInvalidBody, err)
		return
	}

	email, ok := req.EmailString()
	if !ok {
		h.writeMessage(w, http.StatusBadRequest, MsgEmailRequired, nil)
		return
	}

	result, err := h.svc.Signup(r.Context(), service.SignupInput{
		Email:     email,
		ClientKey: middleware.GetClientKey(r.Context()),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if result.EmailDelayed() {
		h.writeMessage(w, http.StatusOK, MsgJoinedEmailDelay, result.NotificationErr)
		return
	}
	h.writeMessage(w, http.StatusOK, MsgJoined, nil)
}

// handleServiceError maps service errors to HTTP responses.
func (h *SignupHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var rlErr *service.RateLimitError

	switch {
	case errors.Is(err, service.ErrEmailRequired):
		h.writeMessage(w, http.StatusBadRequest, MsgEmailRequired, nil)
	case errors.Is(err, service.ErrInvalidEmail):
		h.writeMessage(w, http.StatusBadRequest, MsgInvalidEmail, nil)
	case errors.As(err, &rlErr):
		w.Header().Set("Retry-After", retryAfterSeconds(rlErr.RetryAfter))
		h.logger.Warn("signup rate limited",
			"client_key", middleware.GetClientKey(r.Context()),
			"retry_after_ms", rlErr.RetryAfter.Milliseconds(),
			"request_id", middleware.GetRequestID(r.Context()),
		)
		h.writeMessage(w, http.StatusTooManyRequests, MsgRateLimited, nil)
	case errors.Is(err, service.ErrDuplicateEmail):
		h.writeMessage(w, http.StatusBadRequest, MsgDuplicateEmail, nil)
	default:
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		h.writeMessage(w, http.StatusInternalServerError, MsgInternalError, err)
	}
}

// writeMessage writes {"message": msg}, plus the error text when debug is on.
func (h *SignupHandler) writeMessage(w http.ResponseWriter, status int, msg string, err error) {
	resp := dto.MessageResponse{Message: msg}
	if h.debug && err != nil {
		resp.Debug = err.Error()
	}
	writeJSON(w, status, resp)
}

// retryAfterSeconds renders d as whole seconds, rounded up, at least 1.
func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
