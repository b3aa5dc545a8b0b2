package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cschleiden/go-workflows/backend/sqlite"
	"github.com/cschleiden/go-workflows/client"
	"github.com/cschleiden/go-workflows/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuenumGerald/snapcloud/internal/blueprint"
	"github.com/QuenumGerald/snapcloud/internal/config"
	"github.com/QuenumGerald/snapcloud/internal/orchestration"
)

type stubProvider struct {
	mu         sync.Mutex
	tasks      []string
	splitErr   error
	splitDelay time.Duration
	splitCalls atomic.Int64
	auditErr   error
}

func (s *stubProvider) SplitTasks(ctx context.Context, requirement string) ([]string, error) {
	s.splitCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.splitDelay > 0 {
		select {
		case <-time.After(s.splitDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.splitErr != nil {
		return nil, s.splitErr
	}
	return s.tasks, nil
}

func (s *stubProvider) GenerateArtifacts(ctx context.Context, tasks []string) (*blueprint.ArtifactBundle, error) {
	return &blueprint.ArtifactBundle{
		DiagramMermaid: "flowchart TD\n  S3 --> CloudFront",
		CfnTemplate:    "Resources:\n  Bucket:\n    Type: AWS::S3::Bucket",
		Cost: blueprint.CostEstimation{
			JSON:  map[string]any{"totalMonthlyCost": 12.5},
			Table: "| Service | Monthly |\n|---|---|\n| S3 | $12.50 |",
		},
	}, nil
}

func (s *stubProvider) AuditArtifacts(ctx context.Context, bundle *blueprint.ArtifactBundle) (*blueprint.AuditReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditErr != nil {
		return nil, s.auditErr
	}
	return &blueprint.AuditReport{Report: "no findings"}, nil
}

// startFacade spins up the full stack: in-memory backend, a worker running
// the blueprint workflow against the stub provider, and the HTTP facade.
func startFacade(t *testing.T, cfg *config.Config, provider *stubProvider) *httptest.Server {
	t.Helper()

	b := sqlite.NewInMemoryBackend()
	ctx, cancel := context.WithCancel(context.Background())

	w := worker.New(b, nil)
	require.NoError(t, orchestration.Register(w, &orchestration.Activities{
		Splitter:      provider,
		Generator:     provider,
		Auditor:       provider,
		StepTimeout:   cfg.StepTimeout,
		SplitFallback: cfg.SplitFallback,
	}))
	require.NoError(t, w.Start(ctx))

	srv := New(client.New(b), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		ts.Close()
		cancel()
		w.WaitForCompletion()
	})
	return ts
}

func testConfig() *config.Config {
	return &config.Config{
		Backend:       config.BackendMemory,
		Provider:      config.ProviderMinimax,
		SplitFallback: true,
		StepTimeout:   time.Minute,
		RunBudget:     time.Minute,
		ResultWait:    30 * time.Second,
		MaxAttempts:   2,
		RetryInterval: time.Millisecond,
	}
}

func postGenerate(t *testing.T, ts *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/generate", "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func Test_Generate(t *testing.T) {
	provider := &stubProvider{tasks: []string{"provision storage", "configure CDN", "set up DNS"}}
	ts := startFacade(t, testConfig(), provider)

	resp, body := postGenerate(t, ts, `{"requirement": "static website with CDN"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []any{"provision storage", "configure CDN", "set up DNS"}, body["tasks"])

	deliverables, ok := body["deliverables"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, deliverables["diagramMermaid"], "flowchart TD")
	assert.Contains(t, deliverables["cfnTemplate"], "AWS::S3::Bucket")

	cost, ok := deliverables["costEstimation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 12.5, cost["json"].(map[string]any)["totalMonthlyCost"])
	assert.Contains(t, cost["table"], "$12.50")

	assert.Nil(t, body["audit"])
	assert.Nil(t, body["degraded"])
}

func Test_Generate_InvalidInput(t *testing.T) {
	provider := &stubProvider{tasks: []string{"task"}}
	ts := startFacade(t, testConfig(), provider)

	for _, payload := range []string{`{}`, `{"requirement": "   "}`, `not json`} {
		resp, body := postGenerate(t, ts, payload)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid input", body["error"])
	}

	// Rejected requests never start an execution.
	assert.Equal(t, int64(0), provider.splitCalls.Load())
}

func Test_Generate_SplitFailure(t *testing.T) {
	provider := &stubProvider{splitErr: errors.New("connection refused")}
	ts := startFacade(t, testConfig(), provider)

	resp, body := postGenerate(t, ts, `{"requirement": "static website"}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["error"], "SplitError")

	// Retried per policy before the execution failed.
	assert.Equal(t, int64(2), provider.splitCalls.Load())
}

func Test_Generate_SplitDegraded(t *testing.T) {
	provider := &stubProvider{splitErr: blueprint.ErrNoTasks}
	ts := startFacade(t, testConfig(), provider)

	resp, body := postGenerate(t, ts, `{"requirement": "static website"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"static website"}, body["tasks"])
	assert.Equal(t, true, body["degraded"])
}

func Test_Generate_WithAudit(t *testing.T) {
	cfg := testConfig()
	cfg.EnableAudit = true
	provider := &stubProvider{tasks: []string{"task"}}
	ts := startFacade(t, cfg, provider)

	resp, body := postGenerate(t, ts, `{"requirement": "static website"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	audit, ok := body["audit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "no findings", audit["report"])
	assert.Nil(t, body["auditFailed"])
}

func Test_Generate_AuditFailureStillSucceeds(t *testing.T) {
	cfg := testConfig()
	cfg.EnableAudit = true
	provider := &stubProvider{tasks: []string{"task"}, auditErr: errors.New("auditor down")}
	ts := startFacade(t, cfg, provider)

	resp, body := postGenerate(t, ts, `{"requirement": "static website"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, body["audit"])
	assert.Equal(t, true, body["auditFailed"])
}

func Test_Generate_ConcurrentIdenticalRequirements(t *testing.T) {
	provider := &stubProvider{tasks: []string{"task"}}
	ts := startFacade(t, testConfig(), provider)

	const n = 4
	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := http.Post(ts.URL+"/generate", "application/json",
				bytes.NewReader([]byte(`{"requirement": "static website"}`)))
			if err == nil {
				resp.Body.Close()
				codes[i] = resp.StatusCode
			}
		}(i)
	}
	wg.Wait()

	// Identical requirements get distinct executions rather than colliding
	// on a shared instance identifier.
	for i := 0; i < n; i++ {
		assert.Equal(t, http.StatusOK, codes[i])
	}
	assert.Equal(t, int64(n), provider.splitCalls.Load())
}

func Test_Generate_StillRunning(t *testing.T) {
	cfg := testConfig()
	cfg.ResultWait = 200 * time.Millisecond
	provider := &stubProvider{tasks: []string{"task"}, splitDelay: 5 * time.Second}
	ts := startFacade(t, cfg, provider)

	resp, body := postGenerate(t, ts, `{"requirement": "static website"}`)
	require.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Equal(t, "execution still running", body["error"])

	// The instance ID comes back so the execution stays reachable; it was
	// not aborted by the elapsed wait.
	id, ok := body["id"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(id, "snapcloud-"))
}

func Test_StillRunning(t *testing.T) {
	assert.False(t, stillRunning(nil))

	// The exact wait-elapsed sentinel from the result wait helper.
	assert.True(t, stillRunning(errors.New("workflow did not finish in time: workflow did not finish in specified timeout")))

	// A store failure during the wait is a real error, not a timeout.
	assert.False(t, stillRunning(errors.New("workflow did not finish in time: getting workflow state: connection reset")))
	assert.False(t, stillRunning(errors.New("SplitError: splitting tasks: model unreachable")))
}

func Test_Generate_MethodNotAllowed(t *testing.T) {
	ts := startFacade(t, testConfig(), &stubProvider{tasks: []string{"task"}})

	resp, err := http.Get(ts.URL + "/generate")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func Test_Health(t *testing.T) {
	ts := startFacade(t, testConfig(), &stubProvider{tasks: []string{"task"}})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}
