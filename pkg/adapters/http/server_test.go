package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openrelief/surveyflow"
	api "github.com/openrelief/surveyflow/pkg/adapters/http"
	"github.com/openrelief/surveyflow/pkg/adapters/memory"
	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/openrelief/surveyflow/pkg/dsl"
	"github.com/openrelief/surveyflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server *httptest.Server
	store  *memory.Store
}

func setup(t *testing.T) *fixture {
	t.Helper()

	b := dsl.New("housing")
	b.Form("start").
		Single("need", "What do you need?", dsl.Opt("bed", "A bed", "shelter"), dsl.Opt("meal", "A meal", "food")).Required().
		When("bed", "beds").
		Otherwise("done")
	b.Form("beds").
		Multi("who", "Who needs a bed?", dsl.Opt("me", "Me"), dsl.Opt("kids", "Children", "family")).
		Go("done")
	b.Form("done").Single("ok", "All good?", dsl.Opt("yes", "Yes"))

	loader, err := b.Build()
	require.NoError(t, err)

	one := 1
	cat := &domain.Category{Slug: "basics", Name: "Basics", Priority: &one}
	finder := memory.NewCatalog(
		domain.Resource{Slug: "shelter-a", Title: "Shelter A", Tags: []domain.Tag{{Slug: "shelter", Category: cat}}},
		domain.Resource{Slug: "kitchen", Title: "Kitchen", Tags: []domain.Tag{{Slug: "food", Category: cat}}},
	)

	eng, err := surveyflow.New("", surveyflow.WithLoader(loader), surveyflow.WithResourceFinder(finder))
	require.NoError(t, err)

	store := memory.NewStore()
	handler := api.NewHandler(eng, eng.Sessions(session.WithSubmissionStore(store)),
		api.WithVersion("test"),
		api.WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "# metrics")
		})),
	)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &fixture{server: srv, store: store}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestServer_Health(t *testing.T) {
	f := setup(t)

	resp, body := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","version":"test"}`, string(body))

	resp, body = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# metrics", string(body))
}

func TestServer_Definition(t *testing.T) {
	f := setup(t)

	resp, body := f.do(t, http.MethodGet, "/definition", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	def := decode[domain.Definition](t, body)
	assert.Equal(t, "housing", def.ID)
	assert.Len(t, def.Forms, 3)

	resp, body = f.do(t, http.MethodGet, "/definition/graph", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "graph TD\n"))
	assert.Contains(t, string(body), `start -- "need = bed" --> beds`)
}

func TestServer_SessionFlow(t *testing.T) {
	f := setup(t)

	resp, body := f.do(t, http.MethodPost, "/sessions", `{"session_id":"s1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	view := decode[api.SessionView](t, body)
	assert.Equal(t, []string{"start"}, view.State.History)
	assert.Equal(t, "start", view.Form.ID)

	resp, _ = f.do(t, http.MethodPost, "/sessions", `{"session_id":"s1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Blocked: required answer missing.
	resp, body = f.do(t, http.MethodPost, "/sessions/s1/advance", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adv := decode[api.AdvanceView](t, body)
	assert.Equal(t, surveyflow.OutcomeBlocked, adv.Step.Outcome)
	assert.Equal(t, []string{"answer required for question need"}, adv.Step.Errors)
	assert.Equal(t, []string{"start"}, adv.State.History)

	resp, _ = f.do(t, http.MethodPut, "/sessions/s1/answers/need", `{"value":"bed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.do(t, http.MethodPost, "/sessions/s1/advance", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adv = decode[api.AdvanceView](t, body)
	assert.Equal(t, surveyflow.OutcomeMoved, adv.Step.Outcome)
	assert.Equal(t, "beds", adv.Form.ID)

	// A lone string is accepted for a multi-choice question.
	resp, body = f.do(t, http.MethodPut, "/sessions/s1/answers/who", `{"value":"kids"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = f.do(t, http.MethodGet, "/sessions/s1/tags", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"tags":["shelter","family"]}`, string(body))

	resp, body = f.do(t, http.MethodPost, "/sessions/s1/advance", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adv = decode[api.AdvanceView](t, body)
	assert.True(t, adv.Step.Completed)
	assert.True(t, adv.Terminal)
	assert.Equal(t, domain.StatusCompleted, adv.State.Status)

	resp, body = f.do(t, http.MethodGet, "/sessions/s1/resources", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	groups := decode[map[string][]domain.Group](t, body)["groups"]
	require.Len(t, groups, 1)
	assert.Equal(t, "shelter-a", groups[0].Resources[0].Slug)

	resp, body = f.do(t, http.MethodGet, "/submissions/s1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sub := decode[domain.Submission](t, body)
	assert.Equal(t, []string{"start", "beds", "done"}, sub.History)
	assert.Equal(t, []string{"shelter", "family"}, sub.Tags)

	resp, body = f.do(t, http.MethodPost, "/sessions/s1/retreat", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ret := decode[api.RetreatView](t, body)
	assert.True(t, ret.Moved)
	assert.Equal(t, "beds", ret.Form.ID)
	assert.Equal(t, domain.StatusActive, ret.State.Status)

	resp, body = f.do(t, http.MethodGet, "/sessions/s1/graph", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "class beds current;")

	resp, _ = f.do(t, http.MethodDelete, "/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_GeneratedSessionID(t *testing.T) {
	f := setup(t)

	resp, body := f.do(t, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decode[api.SessionView](t, body).State.SessionID
	assert.NotEmpty(t, id)

	resp, body = f.do(t, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{id}, decode[map[string][]string](t, body)["sessions"])
}

func TestServer_Errors(t *testing.T) {
	f := setup(t)
	f.do(t, http.MethodPost, "/sessions", `{"session_id":"s1"}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"Unknown session", http.MethodPost, "/sessions/nope/advance", "", http.StatusNotFound},
		{"Unknown question", http.MethodPut, "/sessions/s1/answers/nope", `{"value":"x"}`, http.StatusNotFound},
		{"Unknown option", http.MethodPut, "/sessions/s1/answers/need", `{"value":"car"}`, http.StatusUnprocessableEntity},
		{"Multi on single", http.MethodPut, "/sessions/s1/answers/need", `{"value":["bed","meal"]}`, http.StatusUnprocessableEntity},
		{"Malformed body", http.MethodPut, "/sessions/s1/answers/need", `{`, http.StatusBadRequest},
		{"No submission", http.MethodGet, "/submissions/s1", "", http.StatusNotFound},
		{"Delete unknown", http.MethodDelete, "/sessions/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
		})
	}

	_, body := f.do(t, http.MethodPut, "/sessions/s1/answers/need", `{"value":"car"}`)
	assert.Contains(t, string(body), "unknown option for question need")
}

func TestServer_SubscribeEvents(t *testing.T) {
	f := setup(t)
	f.do(t, http.MethodPost, "/sessions", `{"session_id":"s1"}`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/sessions/s1/events?watch=history", nil)
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	// The answer diff is filtered out by watch=history; the move is delivered.
	f.do(t, http.MethodPut, "/sessions/s1/answers/need", `{"value":"meal"}`)
	f.do(t, http.MethodPost, "/sessions/s1/advance", "")

	var data string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			data = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	require.NotEmpty(t, data)

	diff := decode[domain.StateDiff](t, []byte(data))
	assert.Equal(t, "s1", diff.SessionID)
	require.NotNil(t, diff.CurrentFormID)
	assert.Equal(t, "done", *diff.CurrentFormID)
	require.NotNil(t, diff.History)
	assert.Equal(t, []string{"done"}, diff.History.Pushed)
}

func TestServer_SubscribeEvents_UnknownSession(t *testing.T) {
	f := setup(t)
	resp, _ := f.do(t, http.MethodGet, "/sessions/nope/events", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamManager(t *testing.T) {
	sm := api.NewStreamManager()
	ch, cancel := sm.Subscribe("s1")

	sm.Broadcast("s1", &domain.StateDiff{SessionID: "s1"})
	sm.Broadcast("other", &domain.StateDiff{SessionID: "other"})

	got := <-ch
	assert.Equal(t, "s1", got.SessionID)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}
