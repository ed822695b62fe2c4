package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/storegate/internal/logging"
	"github.com/dmitrijs2005/storegate/internal/server/auth"
	"github.com/dmitrijs2005/storegate/internal/server/media"
	"github.com/dmitrijs2005/storegate/internal/server/models"
	"github.com/dmitrijs2005/storegate/internal/server/services"
	"github.com/go-chi/render"
)

// Accounts is the account lifecycle the handlers drive.
type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	VerifyEmail(ctx context.Context, email, code string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, cred services.Credentials) (*models.Account, error)
	AdminLogin(ctx context.Context, cred services.Credentials) (*models.Account, error)
}

type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

// Pinger reports record store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ImageUploader interface {
	UploadImage(ctx context.Context, data []byte) (string, error)
}

type Handler struct {
	accounts Accounts
	tokens   TokenIssuer
	store    Pinger
	images   ImageUploader
	logger   logging.Logger
	now      func() time.Time
}

// NewHandler builds the route handlers. images may be nil, in which case
// uploads answer 503.
func NewHandler(accounts Accounts, tokens TokenIssuer, store Pinger, images ImageUploader, logger logging.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		tokens:   tokens,
		store:    store,
		images:   images,
		logger:   logger,
		now:      time.Now,
	}
}

type verifyEmailRequest struct {
	Email            string `json:"email"`
	VerificationCode string `json:"verification_code"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type userView struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	IsVerified bool   `json:"is_verified"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid input data: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) issueToken(a *models.Account) (string, error) {
	return h.tokens.Issue(auth.Identity{
		SubjectID: a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Role:      auth.RoleFor(a.Kind),
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if !h.decode(w, r, &in) {
		return
	}

	account, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, r, "Registration successful. Please check your email for a verification code.",
		map[string]string{"user_id": account.ID})
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var in verifyEmailRequest
	if !h.decode(w, r, &in) {
		return
	}

	if err := h.accounts.VerifyEmail(r.Context(), in.Email, in.VerificationCode); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, r, "Email verified successfully.", nil)
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var in resendRequest
	if !h.decode(w, r, &in) {
		return
	}

	if err := h.accounts.ResendVerification(r.Context(), in.Email); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, r, "Verification code has been resent. Please check your email (including spam folder).", nil)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.Credentials
	if !h.decode(w, r, &in) {
		return
	}

	account, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	token, err := h.issueToken(account)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, r, "Login successful", map[string]any{
		"token": token,
		"user": userView{
			UserID:     account.ID,
			Email:      account.Email,
			FirstName:  account.FirstName,
			LastName:   account.LastName,
			IsVerified: account.EmailVerified,
		},
	})
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var in services.Credentials
	if !h.decode(w, r, &in) {
		return
	}

	account, err := h.accounts.AdminLogin(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	token, err := h.issueToken(account)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, r, "Admin login successful", map[string]string{"token": token})
}

// Me echoes the verified claims of the caller.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, auth.ReasonInvalidToken.Message())
		return
	}

	data := map[string]any{
		"user_id":    claims.Subject,
		"email":      claims.Email,
		"first_name": claims.FirstName,
		"last_name":  claims.LastName,
		"role":       claims.Role,
	}
	if claims.ExpiresAt != nil {
		data["expires_at"] = claims.ExpiresAt.Time.UTC()
	}

	writeSuccess(w, r, "", data)
}

// UploadImage stores the multipart "image" field and returns its URL.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeError(w, r, http.StatusServiceUnavailable, "Image uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, media.MaxImageSize+1<<20)
	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, media.MaxImageSize+1))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Image file could not be read")
		return
	}

	url, err := h.images.UploadImage(r.Context(), data)
	switch {
	case errors.Is(err, media.ErrEmptyImage), errors.Is(err, media.ErrImageTooLarge), errors.Is(err, media.ErrNotAnImage):
		writeError(w, r, http.StatusBadRequest, "Invalid image: "+err.Error())
		return
	case err != nil:
		h.logger.Error(r.Context(), "image upload failed", "error", err)
		writeError(w, r, http.StatusBadGateway, "Image upload failed")
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	if claims != nil {
		h.logger.Info(r.Context(), "image uploaded", "admin_id", claims.Subject, "url", url)
	}

	writeSuccess(w, r, "Image uploaded successfully", map[string]string{"url": url})
}

type healthDatabase struct {
	Connected bool   `json:"connected"`
	Status    string `json:"status"`
}

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Database  healthDatabase `json:"database"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC(),
		Database:  healthDatabase{Connected: true, Status: "healthy"},
	}

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error(r.Context(), "health check failed", "error", err)
		resp.Status = statusError
		resp.Database = healthDatabase{Connected: false, Status: "unhealthy"}
		render.Status(r, http.StatusInternalServerError)
	}

	render.JSON(w, r, resp)
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "Route not found")
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}
