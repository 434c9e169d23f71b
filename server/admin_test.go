package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func request(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestAdminAPI(t *testing.T) {
	co := newTestCoordinator(false)
	s := New(co, ":0", true)

	w := request(t, s, http.MethodGet, "/api/games", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var games []gameInfo
	decode(t, w, &games)
	require.Len(t, games, 6)

	w = request(t, s, http.MethodPost, "/api/tournaments",
		map[string]string{"gameId": "dominorio", "label": "turma A"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
	decode(t, w, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "turma A", created.Label)

	// One active tournament per game
	w = request(t, s, http.MethodPost, "/api/tournaments",
		map[string]string{"gameId": "dominorio"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = request(t, s, http.MethodPost, "/api/tournaments",
		map[string]string{"gameId": "xadrez"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = request(t, s, http.MethodPost, "/api/tournaments/"+created.ID+"/bots",
		map[string]int{"count": 3})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = request(t, s, http.MethodGet, "/api/tournaments/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st struct {
		Players []json.RawMessage `json:"players"`
	}
	decode(t, w, &st)
	require.Len(t, st.Players, 3)

	// Bot-only tournaments play themselves to completion on start
	w = request(t, s, http.MethodPost, "/api/tournaments/"+created.ID+"/start", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var full struct {
		Phase      string `json:"phase"`
		ChampionID string `json:"championId"`
	}
	w = request(t, s, http.MethodGet, "/api/tournaments/"+created.ID, nil)
	decode(t, w, &full)
	require.Equal(t, "finished", full.Phase)
	require.NotEmpty(t, full.ChampionID)

	w = request(t, s, http.MethodGet, "/api/tournaments/"+created.ID+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	exported := w.Body.Bytes()

	// A finished tournament can be re-imported under its own ID
	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader(exported))
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	w = request(t, s, http.MethodGet, "/api/tournaments/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// No archive configured
	w = request(t, s, http.MethodGet, "/api/archive", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = request(t, s, http.MethodGet, "/api/snapshots", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminDisabled(t *testing.T) {
	co := newTestCoordinator(false)
	s := New(co, ":0", false)

	w := request(t, s, http.MethodGet, "/api/games", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
