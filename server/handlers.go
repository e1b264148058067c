package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ThqRel/config"
	"ThqRel/core/notify"
	"ThqRel/core/release"
	"ThqRel/logger"
	"ThqRel/model"
	"ThqRel/repository"
	"ThqRel/storage"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	releaseSvc *release.Service
	userRepo   repository.UserRepository
	notifRepo  repository.NotificationRepository
	assets     *storage.AssetStore
	feedHub    *notify.FeedHub
	cfg        *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	releaseSvc *release.Service,
	userRepo repository.UserRepository,
	notifRepo repository.NotificationRepository,
	assets *storage.AssetStore,
	feedHub *notify.FeedHub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		releaseSvc: releaseSvc,
		userRepo:   userRepo,
		notifRepo:  notifRepo,
		assets:     assets,
		feedHub:    feedHub,
		cfg:        cfg,
	}
}

type contextKey string

const (
	ctxKeyUserID   contextKey = "userID"
	ctxKeyUsername contextKey = "username"
	ctxKeyRole     contextKey = "role"
)

// actorFromContext builds the engine actor from the values AuthMiddleware
// stored on the request context.
func actorFromContext(ctx context.Context) (release.Actor, error) {
	userID, ok := ctx.Value(ctxKeyUserID).(int64)
	if !ok {
		return release.Actor{}, errors.New("user ID not found in context")
	}
	role, ok := ctx.Value(ctxKeyRole).(model.Role)
	if !ok {
		role = model.RoleArtist
	}
	return release.Actor{ID: userID, Role: role}, nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("failed to encode response", logger.ErrorField(err))
		}
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

// respondEngineError maps engine errors to HTTP responses. Validation
// failures carry the full unmet-category payload so the UI can render every
// problem at once.
func respondEngineError(w http.ResponseWriter, err error) {
	var (
		validationErr *release.ValidationError
		transitionErr *release.InvalidTransitionError
		paymentErr    *release.PaymentNotVerifiedError
		uploadErr     *release.AssetUploadError
	)

	switch {
	case errors.Is(err, release.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, release.ErrPermissionDenied):
		respondError(w, http.StatusForbidden, "permission_denied", err.Error())
	case errors.Is(err, release.ErrConcurrentModification):
		respondError(w, http.StatusConflict, "concurrent_modification", err.Error())
	case errors.Is(err, release.ErrRejectionReasonRequired):
		respondError(w, http.StatusBadRequest, "rejection_reason_required", err.Error())
	case errors.Is(err, release.ErrPaymentNotApplicable):
		respondError(w, http.StatusBadRequest, "payment_not_applicable", err.Error())
	case errors.Is(err, release.ErrEmptyBatch):
		respondError(w, http.StatusBadRequest, "empty_batch", err.Error())
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "incomplete",
			"message": validationErr.Error(),
			"unmet":   validationErr.Unmet,
		})
	case errors.As(err, &paymentErr):
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":         "payment_not_verified",
			"message":       paymentErr.Error(),
			"paymentStatus": paymentErr.PaymentStatus,
		})
	case errors.As(err, &transitionErr):
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   "invalid_transition",
			"message": transitionErr.Error(),
			"event":   transitionErr.Event,
			"current": transitionErr.Current,
		})
	case errors.As(err, &uploadErr):
		respondError(w, http.StatusBadGateway, "asset_upload_failed", uploadErr.Error())
	default:
		logger.Error("unexpected error handling request", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "internal", "Internal server error")
	}
}
