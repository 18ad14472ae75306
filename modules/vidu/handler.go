package vidu

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"vidu-proxy-server/modules/common/middleware"
)

// Handler - HTTP surface of the proxy
type Handler struct {
	service *Service
	log     *zap.Logger
}

// NewHandler - Handler 생성
func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, log: log.Named("vidu.handler")}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/api/text2video", h.HandleSubmitGeneration).Methods(http.MethodPost)
	r.HandleFunc("/api/videos/{video_id}", h.HandleGetVideoStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{task_id}/creations", h.HandleGetTaskCreations).Methods(http.MethodGet)
}

// HealthCheck - GET /health, independent of the API key
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "OK", Message: HealthMessage})
}

// HandleSubmitGeneration - POST /api/text2video
func (h *Handler) HandleSubmitGeneration(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeGenerationRequest(r.Body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := h.service.SubmitGeneration(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// HandleGetVideoStatus - GET /api/videos/{video_id}
func (h *Handler) HandleGetVideoStatus(w http.ResponseWriter, r *http.Request) {
	body, err := h.service.GetVideoStatus(r.Context(), mux.Vars(r)["video_id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// HandleGetTaskCreations - GET /api/tasks/{task_id}/creations
func (h *Handler) HandleGetTaskCreations(w http.ResponseWriter, r *http.Request) {
	body, err := h.service.GetTaskCreations(r.Context(), mux.Vars(r)["task_id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	perr := AsProxyError(err)

	fields := []zap.Field{
		zap.String("kind", string(perr.Kind)),
		zap.Int("status", perr.Status),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
	}
	if perr.Kind == KindServer || perr.Kind == KindConfiguration {
		h.log.Error(perr.Message, fields...)
	} else {
		h.log.Info(perr.Message, fields...)
	}

	writeJSON(w, perr.Status, perr.Envelope())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw relays an upstream JSON body byte for byte.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
