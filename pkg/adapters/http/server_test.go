package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fin "github.com/DrewCarlson/Fin"
	httpadapter "github.com/DrewCarlson/Fin/pkg/adapters/http"
	"github.com/DrewCarlson/Fin/pkg/domain"
)

type todoState struct {
	Items []string `json:"items"`
}

func todoReducer(ctx context.Context, s todoState, a domain.Action) (todoState, error) {
	switch a.Name {
	case "add":
		item, _ := a.Payload.(string)
		if item == "" {
			return fin.Reject[todoState]()
		}
		items := make([]string, 0, len(s.Items)+1)
		items = append(items, s.Items...)
		items = append(items, item)
		return todoState{Items: items}, nil
	default:
		return fin.Reject[todoState]()
	}
}

func newTestServer(t *testing.T, opts ...httpadapter.Option[todoState]) *httptest.Server {
	t.Helper()
	proc := fin.New(todoState{}, fin.WithReducerFunc[todoState](todoReducer))
	srv := httptest.NewServer(httpadapter.NewHandler(proc, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func postAction(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/actions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHandler_Dispatch(t *testing.T) {
	srv := newTestServer(t)

	resp := postAction(t, srv, `{"name":"add","payload":"write tests"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ActionID string    `json:"action_id"`
		State    todoState `json:"state"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.ActionID)
	assert.Equal(t, []string{"write tests"}, body.State.Items)
}

func TestHandler_Rejected(t *testing.T) {
	var rejectedNames []string
	srv := newTestServer(t, httpadapter.WithRejectedHandler[todoState](
		func(s todoState, a domain.Action) {
			rejectedNames = append(rejectedNames, a.Name)
		},
	))

	resp := postAction(t, srv, `{"name":"unknown"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, []string{"unknown"}, rejectedNames)

	// A rejection does not poison later dispatches.
	resp = postAction(t, srv, `{"name":"add","payload":"ok"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp := postAction(t, srv, `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postAction(t, srv, `{"payload":"missing name"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_NoReducer(t *testing.T) {
	proc := fin.New(todoState{})
	srv := httptest.NewServer(httpadapter.NewHandler(proc))
	t.Cleanup(srv.Close)

	resp := postAction(t, srv, `{"name":"add","payload":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHandler_State(t *testing.T) {
	srv := newTestServer(t)

	postAction(t, srv, `{"name":"add","payload":"a"}`)
	postAction(t, srv, `{"name":"add","payload":"b"}`)

	resp, err := http.Get(srv.URL + "/v1/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state todoState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, []string{"a", "b"}, state.Items)
}

func TestHandler_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
