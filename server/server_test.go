package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courserag/internal/models"
	"courserag/pkg/rag"
	"courserag/server"
)

type ragQuery struct{ sessionID, text string }

type fakeRAG struct {
	answer  string
	sources []models.Source
	err     error

	analytics    rag.Analytics
	analyticsErr error

	queries []ragQuery
	created int
	cleared []string
}

func (f *fakeRAG) Query(_ context.Context, sessionID, text string) (string, []models.Source, error) {
	f.queries = append(f.queries, ragQuery{sessionID, text})
	return f.answer, f.sources, f.err
}

func (f *fakeRAG) Analytics(context.Context) (rag.Analytics, error) {
	return f.analytics, f.analyticsErr
}

func (f *fakeRAG) CreateSession() string {
	f.created++
	return "auto-created-session"
}

func (f *fakeRAG) ClearSession(id string) { f.cleared = append(f.cleared, id) }

func postQuery(t *testing.T, system *fakeRAG, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	w := httptest.NewRecorder()
	server.New(system, nil).Handler().ServeHTTP(w, req)
	return w
}

func TestQuery_ReturnsAnswerSourcesAndSession(t *testing.T) {
	system := &fakeRAG{
		answer: "Test answer",
		sources: []models.Source{
			{Label: "Course A - Lesson 1", URL: "http://example.com"},
		},
	}

	w := postQuery(t, system, `{"query": "What is Python?", "session_id": "s1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Answer    string          `json:"answer"`
		Sources   []models.Source `json:"sources"`
		SessionID string          `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "Test answer", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Course A - Lesson 1", resp.Sources[0].Label)
	assert.Equal(t, "http://example.com", resp.Sources[0].URL)
	assert.Equal(t, "s1", resp.SessionID)

	require.Len(t, system.queries, 1)
	assert.Equal(t, ragQuery{"s1", "What is Python?"}, system.queries[0])
	assert.Zero(t, system.created)
}

func TestQuery_BlankSessionIsAutoCreated(t *testing.T) {
	system := &fakeRAG{answer: "hi"}

	w := postQuery(t, system, `{"query": "test"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1, system.created)
	assert.Contains(t, w.Body.String(), `"session_id":"auto-created-session"`)
	require.Len(t, system.queries, 1)
	assert.Equal(t, "auto-created-session", system.queries[0].sessionID)
}

func TestQuery_SourcesNeverNull(t *testing.T) {
	system := &fakeRAG{answer: "direct answer, no search"}

	w := postQuery(t, system, `{"query": "hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sources":[]`)
}

func TestQuery_MissingQueryRejected(t *testing.T) {
	system := &fakeRAG{}

	w := postQuery(t, system, `{"session_id": "s1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "query is required")
	assert.Empty(t, system.queries)
}

func TestQuery_MalformedBodyRejected(t *testing.T) {
	w := postQuery(t, &fakeRAG{}, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestQuery_FailureReturns500WithDetail(t *testing.T) {
	system := &fakeRAG{err: errors.New("something went wrong")}

	w := postQuery(t, system, `{"query": "test", "session_id": "s1"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "something went wrong")
}

func TestCourses_ReturnsCatalogStats(t *testing.T) {
	system := &fakeRAG{analytics: rag.Analytics{
		TotalCourses: 2,
		CourseTitles: []string{"Python Basics", "Advanced Python"},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	w := httptest.NewRecorder()
	server.New(system, nil).Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"total_courses": 2, "course_titles": ["Python Basics", "Advanced Python"]}`,
		w.Body.String())
}

func TestCourses_FailureReturns500WithDetail(t *testing.T) {
	system := &fakeRAG{analyticsErr: errors.New("DB error")}

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	w := httptest.NewRecorder()
	server.New(system, nil).Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "DB error")
}

func TestDeleteSession_ClearsAndAcks(t *testing.T) {
	system := &fakeRAG{}

	req := httptest.NewRequest(http.MethodDelete, "/api/session/target-session", nil)
	w := httptest.NewRecorder()
	server.New(system, nil).Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
	assert.Equal(t, []string{"target-session"}, system.cleared)
}

func TestHealth_ReturnsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.New(&fakeRAG{}, nil).Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

type wsFrame struct {
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	var frame wsFrame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocket_QueryExchange(t *testing.T) {
	system := &fakeRAG{
		answer: "Test answer",
		sources: []models.Source{
			{Label: "Course A - Lesson 1", URL: "http://example.com"},
		},
	}

	ts := httptest.NewServer(server.New(system, nil).Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	session := readFrame(t, conn)
	assert.Equal(t, "session", session.Type)
	assert.Equal(t, "auto-created-session", session.SessionID)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":    "query",
		"content": "What is Python?",
	}))

	status := readFrame(t, conn)
	assert.Equal(t, "status", status.Type)

	answer := readFrame(t, conn)
	assert.Equal(t, "answer", answer.Type)
	assert.Equal(t, "Test answer", answer.Content)
	assert.Equal(t, "auto-created-session", answer.SessionID)

	var sources []models.Source
	require.NoError(t, json.Unmarshal(answer.Data, &sources))
	require.Len(t, sources, 1)
	assert.Equal(t, "Course A - Lesson 1", sources[0].Label)

	require.Len(t, system.queries, 1)
	assert.Equal(t, ragQuery{"auto-created-session", "What is Python?"}, system.queries[0])
}

func TestWebSocket_RejectsNonQueryFrames(t *testing.T) {
	ts := httptest.NewServer(server.New(&fakeRAG{}, nil).Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readFrame(t, conn) // session frame

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame.Type)
	assert.Contains(t, frame.Content, "expected a query")
}

func TestRun_ShutsDownOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.New(&fakeRAG{}, nil).Run(ctx, addr)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
