package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nawabco/waitlist/internal/handler/dto"
	"github.com/nawabco/waitlist/internal/middleware"
	"github.com/nawabco/waitlist/internal/model"
	"github.com/nawabco/waitlist/internal/service"
)

// Admin response messages.
const (
	MsgDeleted       = "Email deleted successfully"
	MsgNotFound      = "Email not found"
	MsgAdminInternal = "An error occurred while processing your request"
)

// adminTimeout bounds each admin store call.
const adminTimeout = 10 * time.Second

// ExportTimeLayout formats submission dates in the CSV export.
const ExportTimeLayout = time.RFC3339

// SignupAdmin is the part of the signup service the admin endpoints use.
type SignupAdmin interface {
	ListSignups(ctx context.Context) ([]*model.Signup, error)
	DeleteSignup(ctx context.Context, id string) error
}

// AdminHandler serves the unauthenticated admin endpoints. Access control is
// expected in front of the service.
type AdminHandler struct {
	svc    SignupAdmin
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc SignupAdmin, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/admin/emails.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
	defer cancel()

	signups, err := h.svc.ListSignups(ctx)
	if err != nil {
		h.internalError(w, r, "failed to list signups", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSignupListResponse(signups))
}

// Export handles GET /api/admin/emails/export. It returns every signup as
// CSV, newest first, with an "Email,Submission Date" header.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
	defer cancel()

	signups, err := h.svc.ListSignups(ctx)
	if err != nil {
		h.internalError(w, r, "failed to export signups", err)
		return
	}

	filename := "waitlist_emails_" + time.Now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Email", "Submission Date"})
	for _, s := range signups {
		_ = cw.Write([]string{s.Email, s.SubmissionDate.UTC().Format(ExportTimeLayout)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Warn("csv export interrupted",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}
}

// Delete handles DELETE /api/admin/emails/{id}.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
	defer cancel()

	err := h.svc.DeleteSignup(ctx, id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, dto.MessageResponse{Message: MsgDeleted})
	case errors.Is(err, service.ErrSignupNotFound):
		writeJSON(w, http.StatusNotFound, dto.MessageResponse{Message: MsgNotFound})
	default:
		h.internalError(w, r, "failed to delete signup", err)
	}
}

func (h *AdminHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		"error", err,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	writeJSON(w, http.StatusInternalServerError, dto.MessageResponse{Message: MsgAdminInternal})
}
