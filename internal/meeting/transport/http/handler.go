// internal/meeting/transport/http/handler.go
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campushub/session-system/common/autherr"
	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/common/response"
	"github.com/campushub/session-system/internal/meeting/storage/postgres"
)

// Handler обслуживает HTTP-эндпоинты встреч. Авторизация сделана
// middleware'ом до хендлера: сюда попадают только допущенные участники.
type Handler struct {
	repo postgres.Repository
	log  *logger.Logger
}

// NewHandler создаёт Handler.
func NewHandler(repo postgres.Repository, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log.Named("http")}
}

func meetingID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// GetMeeting возвращает карточку встречи.
func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := meetingID(r)
	if err != nil {
		response.Error(w, autherr.ErrNotFound)
		return
	}

	m, err := h.repo.GetMeeting(r.Context(), id)
	if errors.Is(err, postgres.ErrNotFound) {
		response.Error(w, autherr.ErrNotFound)
		return
	}
	if err != nil {
		h.log.WithContext(r.Context()).Error("get meeting failed",
			zap.Int64("meeting_id", id), zap.Error(err))
		response.Error(w, autherr.ErrServerError.WithCause(err))
		return
	}
	response.JSON(w, m)
}

// CloseMeeting переводит встречу в статус CLOSED.
func (h *Handler) CloseMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := meetingID(r)
	if err != nil {
		response.Error(w, autherr.ErrNotFound)
		return
	}

	if err := h.repo.CloseMeeting(r.Context(), id); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			response.Error(w, autherr.ErrNotFound)
			return
		}
		h.log.WithContext(r.Context()).Error("close meeting failed",
			zap.Int64("meeting_id", id), zap.Error(err))
		response.Error(w, autherr.ErrServerError.WithCause(err))
		return
	}
	response.JSON(w, map[string]string{"status": "CLOSED"})
}
