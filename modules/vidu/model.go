package vidu

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultModel       = "vidu-1"
	DefaultDuration    = 4
	DefaultAspectRatio = "16:9"
)

// HealthMessage is returned by /health.
const HealthMessage = "Vidu API Proxy Server is running"

// GenerationRequest - POST /api/text2video body. Prompt must be present but
// may be empty; the Vidu API decides whether an empty prompt is acceptable.
type GenerationRequest struct {
	Prompt      *string `json:"prompt" validate:"required"`
	Model       *string `json:"model,omitempty"`
	Duration    *int    `json:"duration,omitempty"`
	AspectRatio *string `json:"aspect_ratio,omitempty"`
	Style       *string `json:"style,omitempty"`
}

// UpstreamPayload - body sent to /ent/v2/text2video. Style is left out
// entirely when unset or empty.
type UpstreamPayload struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model"`
	Duration    int    `json:"duration"`
	AspectRatio string `json:"aspect_ratio"`
	Style       string `json:"style,omitempty"`
}

// Payload applies defaults and builds the upstream body.
func (r *GenerationRequest) Payload() UpstreamPayload {
	p := UpstreamPayload{
		Model:       DefaultModel,
		Duration:    DefaultDuration,
		AspectRatio: DefaultAspectRatio,
	}
	if r.Prompt != nil {
		p.Prompt = *r.Prompt
	}
	if r.Model != nil {
		p.Model = *r.Model
	}
	if r.Duration != nil {
		p.Duration = *r.Duration
	}
	if r.AspectRatio != nil {
		p.AspectRatio = *r.AspectRatio
	}
	if r.Style != nil {
		p.Style = *r.Style
	}
	return p
}

// HealthResponse - GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 에러 메시지에 JSON 필드명 사용
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeGenerationRequest reads and validates a GenerationRequest. Any
// problem is reported as a validation *ProxyError.
func DecodeGenerationRequest(body io.Reader) (*GenerationRequest, error) {
	var req GenerationRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, NewValidationError("request body is required")
		}
		return nil, NewValidationError(fmt.Sprintf("invalid JSON body: %v", err))
	}

	if err := validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
			}
			return nil, NewValidationError(strings.Join(msgs, "; "))
		}
		return nil, NewValidationError(err.Error())
	}
	return &req, nil
}
