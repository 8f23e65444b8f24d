package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/m-mizutani/pagewright/pkg/domain/types"
)

//go:embed openapi.yaml
var openapiSpec []byte

const defaultMaxBodySize = 32 << 20

// DeployHandler accepts deployment requests and hands them to the admission use case
type DeployHandler struct {
	admission   interfaces.AdmissionUseCase
	schema      *openapi3.Schema
	maxBodySize int64
}

func loadRequestSchema(ctx context.Context) (*openapi3.Schema, error) {
	doc, err := openapi3.NewLoader().LoadFromData(openapiSpec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load OpenAPI document")
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, goerr.Wrap(err, "invalid OpenAPI document")
	}

	ref, ok := doc.Components.Schemas["DeploymentRequest"]
	if !ok || ref.Value == nil {
		return nil, goerr.New("DeploymentRequest schema is not defined")
	}
	return ref.Value, nil
}

// NewDeployHandler creates a new DeployHandler
func NewDeployHandler(ctx context.Context, admission interfaces.AdmissionUseCase, maxBodySize int64) (*DeployHandler, error) {
	schema, err := loadRequestSchema(ctx)
	if err != nil {
		return nil, err
	}
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}

	return &DeployHandler{
		admission:   admission,
		schema:      schema,
		maxBodySize: maxBodySize,
	}, nil
}

// Handle processes deployment requests. It returns as soon as the job is queued.
func (h *DeployHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, goerr.New("request body is too large", goerr.V("limit", tooLarge.Limit)), http.StatusRequestEntityTooLarge)
			return
		}
		logger.Error("Failed to read request body", "error", err)
		writeError(w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		writeError(w, goerr.Wrap(err, "request body is not valid JSON"), http.StatusBadRequest)
		return
	}
	if err := h.schema.VisitJSON(raw); err != nil {
		logger.Warn("Deployment request does not match schema", "error", err)
		writeError(w, goerr.Wrap(err, "invalid deployment request"), http.StatusUnprocessableEntity)
		return
	}

	var req model.DeploymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, goerr.Wrap(err, "failed to decode deployment request"), http.StatusUnprocessableEntity)
		return
	}

	job, err := h.admission.Admit(ctx, &req)
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			logger.Error("Failed to admit deployment", "error", err, "task", req.Task)
		} else {
			logger.Warn("Rejected deployment", "error", err, "task", req.Task, "status", status)
		}
		writeError(w, publicError(err, status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Deployment-ID", job.ID)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "processing"}); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func statusOf(err error) int {
	switch {
	case goerr.HasTag(err, types.ErrTagValidation):
		return http.StatusUnprocessableEntity
	case goerr.HasTag(err, types.ErrTagAuth):
		return http.StatusUnauthorized
	case goerr.HasTag(err, types.ErrTagQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicError hides internal details of server-side failures
func publicError(err error, status int) error {
	switch status {
	case http.StatusUnauthorized:
		return errors.New("invalid secret")
	case http.StatusServiceUnavailable:
		return errors.New("deployment queue is full")
	case http.StatusInternalServerError:
		return errors.New("internal error")
	default:
		return err
	}
}
