package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"ThqRel/core/release"
	"ThqRel/logger"
	"ThqRel/model"
	"ThqRel/repository"

	"github.com/gorilla/mux"
)

// createReleaseRequest 新建草稿请求
type createReleaseRequest struct {
	Kind model.ReleaseKind `json:"kind"`
	Tier model.Tier        `json:"tier"`
}

// updateReleaseRequest mirrors release.DraftPatch with JSON tags. Absent
// fields stay untouched.
type updateReleaseRequest struct {
	Title           *string           `json:"title"`
	Artists         *[]string         `json:"artists"`
	Genre           *string           `json:"genre"`
	Subgenres       *[]string         `json:"subgenres"`
	CoverURL        *string           `json:"coverUrl"`
	ReleaseDate     *string           `json:"releaseDate"`
	Tracks          *[]model.Track    `json:"tracks"`
	Territories     *[]string         `json:"territories"`
	Platforms       *[]string         `json:"platforms"`
	AcceptContract  *bool             `json:"acceptContract"`
	PromoState      *model.PromoState `json:"promoState"`
	FocusTrack      *string           `json:"focusTrack"`
	FocusTrackPromo *string           `json:"focusTrackPromo"`
	PromoPhotos     *[]string         `json:"promoPhotos"`
}

func (req *updateReleaseRequest) toPatch() release.DraftPatch {
	return release.DraftPatch{
		Title:           req.Title,
		Artists:         req.Artists,
		Genre:           req.Genre,
		Subgenres:       req.Subgenres,
		CoverURL:        req.CoverURL,
		ReleaseDate:     req.ReleaseDate,
		Tracks:          req.Tracks,
		Territories:     req.Territories,
		Platforms:       req.Platforms,
		AcceptContract:  req.AcceptContract,
		PromoState:      req.PromoState,
		FocusTrack:      req.FocusTrack,
		FocusTrackPromo: req.FocusTrackPromo,
		PromoPhotos:     req.PromoPhotos,
	}
}

// CreateReleaseHandler 新建草稿
func (h *APIHandler) CreateReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req createReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	rel, err := h.releaseSvc.CreateDraft(r.Context(), actor, req.Kind, req.Tier)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rel)
}

// GetMyReleasesHandler 艺人自己的作品列表
func (h *APIHandler) GetMyReleasesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	releases, err := h.releaseSvc.ListOwn(r.Context(), actor)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, releases)
}

// GetReleaseHandler 单个作品详情
func (h *APIHandler) GetReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	rel, err := h.releaseSvc.GetRelease(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rel)
}

// UpdateReleaseHandler 编辑草稿（或被驳回的作品）
func (h *APIHandler) UpdateReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req updateReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	rel, err := h.releaseSvc.UpdateDraft(r.Context(), actor, mux.Vars(r)["id"], req.toPatch())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rel)
}

// CompletionHandler 完成度检查
func (h *APIHandler) CompletionHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	report, err := h.releaseSvc.ComputeCompletion(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// SubmitReleaseHandler 提交审核
func (h *APIHandler) SubmitReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	rel, err := h.releaseSvc.Submit(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rel)
}

// UploadCoverHandler 上传封面到 MinIO 并写回草稿
// Expected multipart form field: coverFile (JPEG or PNG)
func (h *APIHandler) UploadCoverHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	id := mux.Vars(r)["id"]

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max memory
		respondError(w, http.StatusBadRequest, "bad_request", "Failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("coverFile")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Missing 'coverFile' in form")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		respondError(w, http.StatusBadRequest, "bad_request", "Cover must be JPEG or PNG")
		return
	}

	objectName := fmt.Sprintf("covers/%s%s", id, ext)
	url, err := h.assets.Put(r.Context(), objectName, file, header.Size, "")
	if err != nil {
		respondEngineError(w, &release.AssetUploadError{Object: objectName, Err: err})
		return
	}

	rel, err := h.releaseSvc.UpdateDraft(r.Context(), actor, id, release.DraftPatch{CoverURL: &url})
	if err != nil {
		respondEngineError(w, err)
		return
	}
	logger.Info("cover uploaded",
		logger.String("releaseId", id),
		logger.String("object", objectName))
	respondJSON(w, http.StatusOK, rel)
}

// UploadTrackAudioHandler 上传音频文件到 MinIO 并写回对应曲目
// Expected multipart form field: audioFile (WAV, FLAC or MP3)
func (h *APIHandler) UploadTrackAudioHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	vars := mux.Vars(r)
	id := vars["id"]
	trackIndex, err := strconv.Atoi(vars["index"])
	if err != nil || trackIndex < 0 {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid track index")
		return
	}

	rel, err := h.releaseSvc.GetRelease(r.Context(), actor, id)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if trackIndex >= len(rel.Tracks) {
		respondError(w, http.StatusBadRequest, "bad_request", "Track index out of range")
		return
	}

	if err := r.ParseMultipartForm(200 << 20); err != nil { // 母带文件可以很大
		respondError(w, http.StatusBadRequest, "bad_request", "Failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("audioFile")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Missing 'audioFile' in form")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".wav" && ext != ".flac" && ext != ".mp3" {
		respondError(w, http.StatusBadRequest, "bad_request", "Audio must be WAV, FLAC or MP3")
		return
	}

	objectName := fmt.Sprintf("audio/%s/%d%s", id, trackIndex, ext)
	url, err := h.assets.Put(r.Context(), objectName, file, header.Size, "")
	if err != nil {
		respondEngineError(w, &release.AssetUploadError{Object: objectName, Err: err})
		return
	}

	tracks := make([]model.Track, len(rel.Tracks))
	copy(tracks, rel.Tracks)
	tracks[trackIndex].AudioURL = url

	updated, err := h.releaseSvc.UpdateDraft(r.Context(), actor, id, release.DraftPatch{Tracks: &tracks})
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// AttachPaymentHandler 上传付款凭证（basic 档）
// Expected multipart form fields: receiptFile, comment (optional)
func (h *APIHandler) AttachPaymentHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	id := mux.Vars(r)["id"]

	if err := r.ParseMultipartForm(16 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("receiptFile")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Missing 'receiptFile' in form")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	objectName := fmt.Sprintf("receipts/%s%s", id, ext)
	url, err := h.assets.Put(r.Context(), objectName, file, header.Size, "")
	if err != nil {
		respondEngineError(w, &release.AssetUploadError{Object: objectName, Err: err})
		return
	}

	rel, err := h.releaseSvc.AttachPaymentReceipt(r.Context(), actor, id, url, r.FormValue("comment"))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rel)
}

// HistoryHandler 作品的审核历史
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	history, err := h.releaseSvc.History(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// DeleteReleaseHandler 删除作品（艺人只能删草稿）
func (h *APIHandler) DeleteReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	if err := h.releaseSvc.DeleteRelease(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// NotificationsHandler 当前用户的通知列表
func (h *APIHandler) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "1"
	notifications, err := h.notifRepo.ListByUser(r.Context(), actor.ID, unreadOnly)
	if err != nil {
		logger.Error("failed to list notifications", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, notifications)
}

// MarkNotificationReadHandler 标记通知已读
func (h *APIHandler) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	if err := h.notifRepo.MarkRead(r.Context(), actor.ID, mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "Notification not found")
			return
		}
		logger.Error("failed to mark notification read", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
