package vidu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"vidu-proxy-server/modules/common/metrics"
)

// authScheme is the keyword in front of the API key in the Authorization
// header. The creations endpoint expects "Token", the others "Bearer".
type authScheme string

const (
	schemeBearer authScheme = "Bearer"
	schemeToken  authScheme = "Token"
)

// operation names, used for logs and metric labels
const (
	opSubmitGeneration = "submit_generation"
	opGetVideoStatus   = "get_video_status"
	opGetTaskCreations = "get_task_creations"
)

const maxUpstreamBody = 10 << 20

// Service - forwards calls to the Vidu API with the server-held key.
// Safe for concurrent use.
type Service struct {
	config     Config
	httpClient *http.Client
	log        *zap.Logger
}

// NewService - Service 생성
func NewService(cfg Config, log *zap.Logger) *Service {
	return NewServiceWithClient(cfg, &http.Client{Timeout: cfg.Timeout}, log)
}

// NewServiceWithClient uses the given client as is; its Timeout bounds every
// upstream call.
func NewServiceWithClient(cfg Config, client *http.Client, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		config:     cfg,
		httpClient: client,
		log:        log.Named("vidu"),
	}
}

// SubmitGeneration - POST /ent/v2/text2video
func (s *Service) SubmitGeneration(ctx context.Context, req *GenerationRequest) (json.RawMessage, error) {
	payload := req.Payload()
	return s.forward(ctx, opSubmitGeneration, http.MethodPost, "/ent/v2/text2video", schemeBearer, payload)
}

// GetVideoStatus - GET /ent/v2/videos/{id}
func (s *Service) GetVideoStatus(ctx context.Context, videoID string) (json.RawMessage, error) {
	path := "/ent/v2/videos/" + url.PathEscape(videoID)
	return s.forward(ctx, opGetVideoStatus, http.MethodGet, path, schemeBearer, nil)
}

// GetTaskCreations - GET /ent/v2/tasks/{id}/creations
func (s *Service) GetTaskCreations(ctx context.Context, taskID string) (json.RawMessage, error) {
	path := "/ent/v2/tasks/" + url.PathEscape(taskID) + "/creations"
	return s.forward(ctx, opGetTaskCreations, http.MethodGet, path, schemeToken, nil)
}

// forward makes exactly one upstream call and classifies the result.
func (s *Service) forward(ctx context.Context, op, method, path string, scheme authScheme, payload any) (body json.RawMessage, err error) {
	var elapsed time.Duration
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = string(AsProxyError(err).Kind)
		}
		metrics.ObserveUpstream(op, outcome, elapsed)
	}()

	if s.config.APIKey == "" {
		s.log.Error("API key not configured", zap.String("operation", op))
		return nil, NewConfigurationError()
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, NewServerError(fmt.Errorf("marshal request: %w", err))
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, NewServerError(fmt.Errorf("create request: %w", err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", string(scheme)+" "+s.config.APIKey)

	s.log.Debug("calling Vidu API", zap.String("operation", op), zap.String("method", method), zap.String("path", path))

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		elapsed = time.Since(start)
		s.log.Warn("Vidu API request failed", zap.String("operation", op), zap.Error(err))
		return nil, NewNetworkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	elapsed = time.Since(start)
	if err != nil {
		s.log.Warn("reading Vidu API response failed", zap.String("operation", op), zap.Error(err))
		return nil, NewNetworkError(err)
	}

	s.log.Debug("Vidu API responded",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)

	if resp.StatusCode != http.StatusOK {
		perr := NewUpstreamError(resp.StatusCode, reasonPhrase(resp), raw)
		s.log.Warn("Vidu API returned an error",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.String("message", perr.Message),
		)
		return nil, perr
	}

	if !json.Valid(raw) {
		return nil, NewServerError(errors.New("Vidu API returned a non-JSON response"))
	}
	return json.RawMessage(raw), nil
}

// reasonPhrase takes the reason from the status line, e.g. "Not Found" from
// "404 Not Found", falling back to the standard text.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
