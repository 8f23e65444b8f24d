package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	controller "github.com/m-mizutani/pagewright/pkg/controller/http"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/m-mizutani/pagewright/pkg/domain/types"
	"github.com/m-mizutani/pagewright/pkg/usecase"
)

// MockQueue records enqueued jobs
type MockQueue struct {
	mu   sync.Mutex
	jobs []*model.DeploymentJob
	err  error
}

func (m *MockQueue) Enqueue(job *model.DeploymentJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

const validBody = `{
  "email": "student@example.com",
  "secret": "test-secret",
  "task": "hello-task",
  "round": 1,
  "nonce": "nonce-123",
  "brief": "Create a Hello World page",
  "checks": ["Page shows Hello World"],
  "evaluation_url": "https://example.com/notify",
  "attachments": [{"name": "sample.txt", "url": "data:text/plain;base64,aGVsbG8="}]
}`

func newTestServer(t *testing.T, queue *MockQueue) *controller.Server {
	t.Helper()
	server, err := controller.NewServer(context.Background(), usecase.NewAdmission("test-secret", queue))
	gt.NoError(t, err)
	return server
}

func post(server *controller.Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api-endpoint", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)
	return w
}

func TestDeployEndpoint_Accepts(t *testing.T) {
	queue := &MockQueue{}
	server := newTestServer(t, queue)

	w := post(server, validBody)
	gt.Number(t, w.Code).Equal(http.StatusOK)

	var resp map[string]string
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	gt.Value(t, resp["status"]).Equal("processing")

	gt.Number(t, len(queue.jobs)).Equal(1)
	job := queue.jobs[0]
	gt.Value(t, w.Header().Get("X-Deployment-ID")).Equal(job.ID)
	gt.Value(t, job.Request.Task).Equal("hello-task")
	gt.Number(t, job.Request.Round).Equal(1)
	gt.Value(t, job.Request.EvaluationURL).Equal("https://example.com/notify")
	gt.Number(t, len(job.Request.Attachments)).Equal(1)
	gt.Value(t, job.Request.Attachments[0].Name).Equal("sample.txt")
}

func TestDeployEndpoint_Rejects(t *testing.T) {
	testCases := []struct {
		name   string
		body   string
		status int
	}{
		{
			name:   "wrong secret",
			body:   strings.Replace(validBody, `"secret": "test-secret"`, `"secret": "nope"`, 1),
			status: http.StatusUnauthorized,
		},
		{
			name:   "round zero",
			body:   strings.Replace(validBody, `"round": 1`, `"round": 0`, 1),
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "round as string",
			body:   strings.Replace(validBody, `"round": 1`, `"round": "1"`, 1),
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "missing evaluation url",
			body:   strings.Replace(validBody, `"evaluation_url": "https://example.com/notify",`, ``, 1),
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "blank brief",
			body:   strings.Replace(validBody, `"brief": "Create a Hello World page"`, `"brief": "  "`, 1),
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "attachment without url",
			body:   strings.Replace(validBody, `, "url": "data:text/plain;base64,aGVsbG8="`, ``, 1),
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "malformed json",
			body:   `{"email": `,
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			queue := &MockQueue{}
			server := newTestServer(t, queue)

			w := post(server, tc.body)
			gt.Number(t, w.Code).Equal(tc.status)
			gt.Number(t, len(queue.jobs)).Equal(0)
			gt.Value(t, w.Header().Get("X-Deployment-ID")).Equal("")

			var resp map[string]string
			gt.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			gt.Value(t, resp["error"]).NotEqual("")
		})
	}
}

func TestDeployEndpoint_QueueFull(t *testing.T) {
	queue := &MockQueue{err: goerr.New("queue is full", goerr.T(types.ErrTagQueueFull))}
	server := newTestServer(t, queue)

	w := post(server, validBody)
	gt.Number(t, w.Code).Equal(http.StatusServiceUnavailable)
}

func TestDeployEndpoint_BodyTooLarge(t *testing.T) {
	queue := &MockQueue{}
	server, err := controller.NewServer(context.Background(),
		usecase.NewAdmission("test-secret", queue),
		controller.WithMaxBodySize(64),
	)
	gt.NoError(t, err)

	w := post(server, validBody)
	gt.Number(t, w.Code).Equal(http.StatusRequestEntityTooLarge)
	gt.Number(t, len(queue.jobs)).Equal(0)
}

func TestDeployEndpoint_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t, &MockQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api-endpoint", nil)
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)
	gt.Number(t, w.Code).Equal(http.StatusMethodNotAllowed)
}
