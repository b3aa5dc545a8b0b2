// Package server exposes the synchronous HTTP facade over the durable
// blueprint workflow. One request starts exactly one workflow execution and
// blocks until it reaches a terminal state or the facade wait elapses; the
// execution itself continues independently of the request.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cschleiden/go-workflows/client"

	"github.com/QuenumGerald/snapcloud/internal/blueprint"
	"github.com/QuenumGerald/snapcloud/internal/config"
	"github.com/QuenumGerald/snapcloud/internal/orchestration"
)

const maxRequestBody = 1 << 20

type Server struct {
	client *client.Client
	cfg    *config.Config
	logger *slog.Logger
}

func New(c *client.Client, cfg *config.Config, logger *slog.Logger) *Server {
	return &Server{client: c, cfg: cfg, logger: logger}
}

// Handler returns the facade's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/generate", s.handleGenerate)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

type generateRequest struct {
	Requirement string `json:"requirement"`
}

type costEstimationResponse struct {
	JSON  map[string]any `json:"json"`
	Table string         `json:"table"`
}

type deliverablesResponse struct {
	DiagramMermaid string                 `json:"diagramMermaid"`
	CfnTemplate    string                 `json:"cfnTemplate"`
	CostEstimation costEstimationResponse `json:"costEstimation"`
}

type generateResponse struct {
	Tasks        []string               `json:"tasks"`
	Deliverables deliverablesResponse   `json:"deliverables"`
	Audit        *blueprint.AuditReport `json:"audit,omitempty"`
	AuditFailed  bool                   `json:"auditFailed,omitempty"`
	Degraded     bool                   `json:"degraded,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	ID    string `json:"id,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input"})
		return
	}
	if strings.TrimSpace(req.Requirement) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input"})
		return
	}

	instanceID := orchestration.NewInstanceID()
	logger := s.logger.With("instance_id", instanceID)

	wf, err := s.client.CreateWorkflowInstance(r.Context(), client.WorkflowInstanceOptions{
		InstanceID: instanceID,
	}, orchestration.Blueprint, orchestration.Input{
		Requirement:   req.Requirement,
		EnableAudit:   s.cfg.EnableAudit,
		MaxAttempts:   s.cfg.MaxAttempts,
		RetryInterval: s.cfg.RetryInterval,
		RunBudget:     s.cfg.RunBudget,
	})
	if err != nil {
		logger.Error("Starting workflow failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: orchestration.Errorf(orchestration.KindEngine, "starting execution: %v", err).Error(),
		})
		return
	}

	logger.Debug("Started workflow execution")

	result, err := client.GetWorkflowResult[*blueprint.Result](r.Context(), s.client, wf, s.cfg.ResultWait)
	if err != nil {
		if stillRunning(err) {
			// The execution keeps running; nothing was aborted.
			logger.Warn("Facade wait elapsed, execution still running")
			writeJSON(w, http.StatusGatewayTimeout, errorResponse{
				Error: "execution still running",
				ID:    wf.InstanceID,
			})
			return
		}

		kind := orchestration.Classify(err)
		logger.Error("Workflow execution failed", "classification", string(kind), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	logger.Debug("Workflow execution completed", "tasks", len(result.Tasks))

	writeJSON(w, http.StatusOK, generateResponse{
		Tasks: result.Tasks,
		Deliverables: deliverablesResponse{
			DiagramMermaid: result.Bundle.DiagramMermaid,
			CfnTemplate:    result.Bundle.CfnTemplate,
			CostEstimation: costEstimationResponse{
				JSON:  result.Bundle.Cost.JSON,
				Table: result.Bundle.Cost.Table,
			},
		},
		Audit:       result.Audit,
		AuditFailed: result.AuditFailed,
		Degraded:    result.SplitDegraded,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// stillRunning reports whether the error means the facade wait elapsed while
// the execution had not reached a terminal state. The wait helper wraps any
// mid-wait failure in a "did not finish in time" message, so only the exact
// timeout sentinel counts; a store failure during the wait stays a 500.
func stillRunning(err error) bool {
	return err != nil && strings.Contains(err.Error(), "did not finish in specified timeout")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
