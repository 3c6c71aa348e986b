package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobboard-forms/internal/config"
	"github.com/jonathan/jobboard-forms/internal/db"
	"github.com/jonathan/jobboard-forms/internal/jobform"
	"github.com/jonathan/jobboard-forms/internal/server/ratelimit"
	"github.com/jonathan/jobboard-forms/internal/store"
	"github.com/jonathan/jobboard-forms/internal/submission"
)

// upstreamError mimics the job API client's error type.
type upstreamError struct {
	status  int
	message string
}

func (e *upstreamError) Error() string         { return fmt.Sprintf("status %d: %s", e.status, e.message) }
func (e *upstreamError) StatusCode() int       { return e.status }
func (e *upstreamError) ServerMessage() string { return e.message }

type fakeLoader struct {
	forms map[string]*jobform.Form
	token string
}

func (l *fakeLoader) LoadForm(_ context.Context, postingID string, creds submission.Credentials) (*jobform.Form, error) {
	l.token = creds.Token
	f, ok := l.forms[postingID]
	if !ok {
		return nil, &upstreamError{status: http.StatusNotFound, message: "job not found"}
	}
	return f, nil
}

// fakePostingAPI backs a real submission.Assembler.
type fakePostingAPI struct {
	mu    sync.Mutex
	calls int
	last  *submission.Submission
	err   error
}

func (a *fakePostingAPI) CreatePosting(_ context.Context, s *submission.Submission) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.last = s
	if a.err != nil {
		return "", a.err
	}
	return "job-new", nil
}

func (a *fakePostingAPI) UpdatePosting(_ context.Context, id string, s *submission.Submission) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.last = s
	if a.err != nil {
		return "", a.err
	}
	return id, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	records []db.SubmissionInput
}

func (a *fakeAudit) RecordSubmission(_ context.Context, in *db.SubmissionInput) (*db.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, *in)
	return &db.Submission{UserID: in.UserID, SessionID: in.SessionID, Status: in.Status}, nil
}

func (a *fakeAudit) ListSubmissionsByUser(_ context.Context, userID string, _ int) ([]db.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []db.Submission{}
	for _, r := range a.records {
		if r.UserID == userID {
			out = append(out, db.Submission{UserID: r.UserID, SessionID: r.SessionID, Status: r.Status})
		}
	}
	return out, nil
}

type testServer struct {
	*Server
	api    *fakePostingAPI
	loader *fakeLoader
	audit  *fakeAudit
	store  *store.MemoryStore
	jwt    *JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithLimiter(t, nil)
}

func newTestServerWithLimiter(t *testing.T, limiter *ratelimit.Limiter) *testServer {
	t.Helper()

	jwtService := NewJWTService(&config.JWTConfig{
		Secret:          "test-secret-key-for-jwt-signing-minimum-32-bytes",
		ExpirationHours: 1,
	})
	api := &fakePostingAPI{}
	loader := &fakeLoader{forms: map[string]*jobform.Form{}}
	audit := &fakeAudit{}
	mem := store.NewMemoryStore(time.Hour)

	s, err := New(Config{Port: 0}, Deps{
		Store:       mem,
		Loader:      loader,
		Submitter:   submission.NewAssembler(api, nil),
		Audit:       audit,
		Tokens:      jwtService.AsTokenValidator(),
		RateLimiter: limiter,
	})
	require.NoError(t, err)

	return &testServer{Server: s, api: api, loader: loader, audit: audit, store: mem, jwt: jwtService}
}

func (ts *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := ts.jwt.GenerateToken(userID)
	require.NoError(t, err)
	return tok
}

// do sends a request as userID ("" for anonymous) and decodes the JSON response into out.
func (ts *testServer) do(t *testing.T, method, path, userID string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token(t, userID))
	}

	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w
}

func (ts *testServer) createForm(t *testing.T, userID string) FormResponse {
	t.Helper()
	var resp FormResponse
	w := ts.do(t, http.MethodPost, "/forms", userID, nil, &resp)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp
}

func validPostingPatch() map[string]any {
	return map[string]any{
		"jobTitle":        "Site Reliability Engineer",
		"country":         "NL",
		"region":          "Noord-Holland",
		"vacancy":         1,
		"employmentType":  jobform.EmploymentFullTime,
		"experienceLevel": jobform.ExperienceSenior,
		"locationType":    jobform.LocationHybrid,
		"careerStage":     jobform.CareerMid,
		"categoryId":      "cat-ops",
		"role":            "SRE",
		"expirationDate":  "2026-12-31",
		"description":     "<p>Keep things <em>up</em>.</p>",
	}
}

// fillValidForm makes every step of the form pass.
func (ts *testServer) fillValidForm(t *testing.T, userID, id string) {
	t.Helper()
	w := ts.do(t, http.MethodPatch, "/forms/"+id+"/posting", userID, validPostingPatch(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPatch, "/forms/"+id+"/requirements/0", userID, map[string]any{"status": "1 month"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var resp map[string]string
	w := ts.do(t, http.MethodGet, "/health", "", nil, &resp)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp["status"])
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}

func TestForms_RequireAuthentication(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/forms", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/forms/abc", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateForm_New(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.createForm(t, "user-1")

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, 1, resp.Form.CurrentStep)
	require.Len(t, resp.Steps, len(jobform.DefaultSteps))
	assert.True(t, resp.Steps[0].Active)

	// The notice period is seeded and tagged for creation.
	require.Len(t, resp.Visible.Requirements, 1)
	assert.True(t, resp.Visible.Requirements[0].Value.IsNoticePeriod())
	assert.Equal(t, jobform.TagCreate, resp.Visible.Requirements[0].Tag)
}

func TestCreateForm_FromExistingPosting(t *testing.T) {
	ts := newTestServer(t)
	ts.loader.forms["job-7"] = jobform.FromExisting("job-7", jobform.JobPosting{JobTitle: "Designer"},
		[]jobform.Entry[jobform.RequirementItem]{
			{ID: "r1", Value: jobform.RequirementItem{Requirement: jobform.NoticePeriodKey, Status: "2 weeks"}},
		}, nil)

	var resp FormResponse
	w := ts.do(t, http.MethodPost, "/forms", "user-1", CreateFormRequest{PostingID: "job-7"}, &resp)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, "job-7", resp.Form.PostingID)
	assert.Equal(t, "Designer", resp.Form.Posting.JobTitle)
	assert.Len(t, resp.Visible.Requirements, 1)
	assert.NotEmpty(t, ts.loader.token, "caller's token is forwarded")

	w = ts.do(t, http.MethodPost, "/forms", "user-1", CreateFormRequest{PostingID: "missing"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateForm_RejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t)

	var resp map[string]string
	w := ts.do(t, http.MethodPost, "/forms", "user-1", map[string]any{"postingId": "x"}, &resp)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "body", resp["field"])
}

func TestGetForm_OwnershipAndDelete(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")

	w := ts.do(t, http.MethodGet, "/forms/"+created.ID, "user-1", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/forms/"+created.ID, "user-2", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodDelete, "/forms/"+created.ID, "user-2", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodDelete, "/forms/"+created.ID, "user-1", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/forms/"+created.ID, "user-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePosting_MergesFields(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")
	path := "/forms/" + created.ID + "/posting"

	w := ts.do(t, http.MethodPatch, path, "user-1", map[string]any{"jobTitle": "Analyst"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp FormResponse
	w = ts.do(t, http.MethodPatch, path, "user-1", map[string]any{"department": "Finance", "userId": "someone-else"}, &resp)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "Analyst", resp.Form.Posting.JobTitle)
	assert.Equal(t, "Finance", resp.Form.Posting.Department)
	assert.Empty(t, resp.Form.Posting.UserID)
}

func TestUpdatePosting_PartialPatchOnNewForm(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")
	base := "/forms/" + created.ID

	var resp FormResponse
	w := ts.do(t, http.MethodPatch, base+"/posting", "user-1", map[string]any{
		"jobTitle":    "Analyst",
		"description": "<p>Crunch numbers.</p>",
	}, &resp)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Analyst", resp.Form.Posting.JobTitle)
	assert.Equal(t, "<p>Crunch numbers.</p>", resp.Form.Posting.Description)
	assert.Empty(t, resp.Form.Posting.Country)
}

func TestUpdatePosting_ValuesCheckedOnValidation(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")
	base := "/forms/" + created.ID

	patch := validPostingPatch()
	patch["employmentType"] = "gig"
	w := ts.do(t, http.MethodPatch, base+"/posting", "user-1", patch, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res jobform.Result
	w = ts.do(t, http.MethodGet, base+"/steps/1/validation", "user-1", nil, &res)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "employmentType")
	assert.Len(t, res.Errors, 1)
}

func TestUpdatePosting_RejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")

	var resp map[string]string
	w := ts.do(t, http.MethodPatch, "/forms/"+created.ID+"/posting", "user-1", map[string]any{"salary": 10}, &resp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "body", resp["field"])
}

func TestSteps_NextBlockedUntilValid(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")
	base := "/forms/" + created.ID

	var resp FormResponse
	w := ts.do(t, http.MethodPost, base+"/steps/next", "user-1", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resp.Form.CurrentStep)
	require.NotNil(t, resp.Validation)
	assert.False(t, resp.Validation.Valid)
	assert.Equal(t, "Job title is required", resp.Validation.Errors["jobTitle"])

	w = ts.do(t, http.MethodPatch, base+"/posting", "user-1", validPostingPatch(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, base+"/steps/next", "user-1", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, resp.Form.CurrentStep)
	assert.True(t, resp.Validation.Valid)

	w = ts.do(t, http.MethodPost, base+"/steps/back", "user-1", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resp.Form.CurrentStep)
}

func TestSteps_GoTo(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")
	base := "/forms/" + created.ID

	w := ts.do(t, http.MethodPost, base+"/steps/9", "user-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, base+"/steps/two", "user-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Skipping ahead stops on the first invalid step.
	var resp FormResponse
	w = ts.do(t, http.MethodPost, base+"/steps/4", "user-1", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resp.Form.CurrentStep)

	ts.fillValidForm(t, "user-1", created.ID)
	w = ts.do(t, http.MethodPost, base+"/steps/5", "user-1", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, resp.Form.CurrentStep)
	assert.True(t, resp.Steps[4].Active)
}

func TestValidateStep(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")
	base := "/forms/" + created.ID

	var res jobform.Result
	w := ts.do(t, http.MethodGet, base+"/steps/3/validation", "user-1", nil, &res)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, res.Valid)
	assert.Equal(t, "Notice period is required", res.Errors["applicationRequirements[0].status"])

	w = ts.do(t, http.MethodGet, base+"/steps/0/validation", "user-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequirements_Lifecycle(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")
	base := "/forms/" + created.ID + "/requirements"

	var resp FormResponse
	w := ts.do(t, http.MethodPost, base, "user-1", RequirementRequest{Requirement: "Resume", Status: jobform.StatusRequired}, &resp)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, resp.Visible.Requirements, 2)

	// A second notice period is refused.
	w = ts.do(t, http.MethodPost, base, "user-1", RequirementRequest{Requirement: jobform.NoticePeriodKey}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// The notice period cannot be removed or renamed.
	w = ts.do(t, http.MethodDelete, base+"/0", "user-1", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = ts.do(t, http.MethodPatch, base+"/0", "user-1", map[string]any{"requirement": "Start date"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPatch, base+"/1", "user-1", map[string]any{"status": jobform.StatusOptional}, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jobform.StatusOptional, resp.Form.Requirements[1].Value.Status)
	assert.Equal(t, jobform.TagCreate, resp.Form.Requirements[1].Tag)

	// Removing an unsaved item drops it entirely.
	w = ts.do(t, http.MethodDelete, base+"/1", "user-1", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Form.Requirements, 1)

	w = ts.do(t, http.MethodDelete, base+"/1", "user-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodPatch, base+"/-1", "user-1", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequirements_RemovePersistedKeepsTombstone(t *testing.T) {
	ts := newTestServer(t)
	ts.loader.forms["job-1"] = jobform.FromExisting("job-1", jobform.JobPosting{},
		[]jobform.Entry[jobform.RequirementItem]{
			{ID: "r1", Value: jobform.RequirementItem{Requirement: "Resume", Status: jobform.StatusRequired}},
			{ID: "r2", Value: jobform.RequirementItem{Requirement: jobform.NoticePeriodKey, Status: "1 week"}},
		}, nil)

	var created FormResponse
	ts.do(t, http.MethodPost, "/forms", "user-1", CreateFormRequest{PostingID: "job-1"}, &created)
	base := "/forms/" + created.ID + "/requirements"

	var resp FormResponse
	w := ts.do(t, http.MethodDelete, base+"/0", "user-1", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, resp.Form.Requirements, 2)
	assert.Equal(t, jobform.TagDelete, resp.Form.Requirements[0].Tag)
	assert.Len(t, resp.Visible.Requirements, 1)
	assert.Equal(t, 1, resp.Visible.Requirements[0].Index)

	// Tombstones are no longer addressable.
	w = ts.do(t, http.MethodPatch, base+"/0", "user-1", map[string]any{"status": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuestions_Lifecycle(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")
	base := "/forms/" + created.ID + "/questions"

	var resp FormResponse
	w := ts.do(t, http.MethodPost, base, "user-1", QuestionRequest{Question: "Why us?"}, &resp)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, resp.Form.Questions, 1)
	assert.NotEmpty(t, resp.Form.Questions[0].Value.ID)

	w = ts.do(t, http.MethodPatch, base+"/0", "user-1", QuestionRequest{Question: "Why this role?"}, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Why this role?", resp.Form.Questions[0].Value.Question)

	w = ts.do(t, http.MethodDelete, base+"/0", "user-1", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp.Form.Questions)

	w = ts.do(t, http.MethodDelete, base+"/0", "user-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmit_InvalidForm(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")

	var resp SubmitErrorResponse
	w := ts.do(t, http.MethodPost, "/forms/"+created.ID+"/submit", "user-1", nil, &resp)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, submission.KindValidation, resp.Kind)
	assert.False(t, resp.Retryable)
	assert.Contains(t, resp.Fields, "jobTitle")
	assert.Zero(t, ts.api.calls)
	assert.Empty(t, ts.audit.records)
}

func TestSubmit_Success(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")
	ts.fillValidForm(t, "user-1", created.ID)
	ts.do(t, http.MethodPost, "/forms/"+created.ID+"/questions", "user-1", QuestionRequest{Question: "Portfolio?"}, nil)

	var resp SubmitResponse
	w := ts.do(t, http.MethodPost, "/forms/"+created.ID+"/submit", "user-1", nil, &resp)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, "job-new", resp.Outcome.RecordID)
	assert.True(t, resp.Outcome.Created)
	assert.Equal(t, 1, resp.Outcome.Requirements)
	assert.Equal(t, 1, resp.Outcome.Questions)

	require.NotNil(t, ts.api.last)
	assert.Equal(t, "user-1", ts.api.last.Posting.UserID)
	assert.NotEmpty(t, ts.api.last.Credentials.Token)

	require.Len(t, ts.audit.records, 1)
	assert.Equal(t, db.StatusSucceeded, ts.audit.records[0].Status)
	assert.Equal(t, db.OperationCreate, ts.audit.records[0].Operation)

	// The session ends after a successful submission.
	w = ts.do(t, http.MethodGet, "/forms/"+created.ID, "user-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmit_UpstreamFailureKeepsSession(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		kind      submission.Kind
		retryable bool
	}{
		{"server error", &upstreamError{status: 500}, http.StatusBadGateway, submission.KindServer, true},
		{"network error", errors.New("connection reset"), http.StatusServiceUnavailable, submission.KindNetwork, true},
		{"rejected", &upstreamError{status: 400, message: "Category is archived"}, http.StatusUnprocessableEntity, submission.KindRejected, false},
		{"forbidden", &upstreamError{status: 403}, http.StatusForbidden, submission.KindRejected, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.api.err = tt.err
			created := ts.createForm(t, "user-1")
			ts.fillValidForm(t, "user-1", created.ID)

			var resp SubmitErrorResponse
			w := ts.do(t, http.MethodPost, "/forms/"+created.ID+"/submit", "user-1", nil, &resp)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.Equal(t, tt.retryable, resp.Retryable)
			assert.NotEmpty(t, resp.Error)

			require.Len(t, ts.audit.records, 1)
			assert.Equal(t, db.StatusFailed, ts.audit.records[0].Status)
			assert.Equal(t, string(tt.kind), ts.audit.records[0].ErrorKind)

			var form FormResponse
			w = ts.do(t, http.MethodGet, "/forms/"+created.ID, "user-1", nil, &form)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, jobform.TagCreate, form.Form.Requirements[0].Tag)
		})
	}
}

func TestListSubmissions(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createForm(t, "user-1")
	ts.fillValidForm(t, "user-1", created.ID)
	ts.do(t, http.MethodPost, "/forms/"+created.ID+"/submit", "user-1", nil, nil)

	var resp SubmissionsResponse
	w := ts.do(t, http.MethodGet, "/submissions", "user-1", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Submissions, 1)
	assert.Equal(t, created.ID, resp.Submissions[0].SessionID)

	w = ts.do(t, http.MethodGet, "/submissions", "user-2", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp.Submissions)

	w = ts.do(t, http.MethodGet, "/submissions?limit=0", "user-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSubmissions_Disabled(t *testing.T) {
	ts := newTestServer(t)
	ts.Server.audit = nil

	w := ts.do(t, http.MethodGet, "/submissions", "user-1", nil, nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  2,
		DefaultWindow: time.Hour,
	})
	defer limiter.Stop()
	ts := newTestServerWithLimiter(t, limiter)

	for i := 0; i < 2; i++ {
		w := ts.do(t, http.MethodGet, "/submissions", "user-1", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
	}

	var resp map[string]any
	w := ts.do(t, http.MethodGet, "/submissions", "user-1", nil, &resp)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limit_exceeded", resp["error"])
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Health stays reachable.
	w = ts.do(t, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/forms", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	ts.allowedOrigins = []string{"https://app.example.com"}
	w = httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
