package server

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n0roo/filiere-kit/internal/document"
	"github.com/n0roo/filiere-kit/internal/filiere"
	"github.com/n0roo/filiere-kit/internal/repository"
	"github.com/n0roo/filiere-kit/internal/store"
)

const testJSON = `{
  "filieres": {
    "it": {
      "nom": "Systèmes d'information",
      "icon": "💻",
      "referent_metier": "Alice",
      "etat_avancement": "prompts_deployes",
      "fopp_count": 2,
      "nombre_collaborateurs_sensibilises": 30,
      "nombre_collaborateurs_total": 120,
      "acces": {"laposte_gpt": 10, "copilot_licences": 3},
      "evenements_recents": [{"date": "2025-02-01", "titre": "Atelier", "description": "Idéation"}]
    },
    "rh": {
      "nom": "Ressources humaines",
      "referent_metier": "Bruno",
      "etat_avancement": "en_emergence",
      "nombre_collaborateurs_sensibilises": 10,
      "nombre_collaborateurs_total": 80
    }
  },
  "etats_avancement": {
    "prompts_deployes": {"label": "Prompts déployés"},
    "en_emergence": {"label": "En émergence"}
  }
}`

var fixedNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func setupTestServer(t *testing.T) (*Server, *store.MemoryBlob) {
	t.Helper()
	blob := store.NewMemoryBlob([]byte(testJSON))
	client := store.NewClient(blob, store.WithCacheTTL(0))
	srv := NewServer(Config{Port: 0, Backend: "memory", Rules: filiere.Rules{PoleData: []string{"Alice", "Bruno"}}},
		repository.New(client, nil), nil)
	srv.now = func() time.Time { return fixedNow }
	return srv, blob
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func stored(t *testing.T, blob *store.MemoryBlob) *document.Document {
	t.Helper()
	doc, err := document.Decode(blob.Data())
	require.NoError(t, err)
	return doc
}

func TestHealth(t *testing.T) {
	srv, blob := setupTestServer(t)

	rec := do(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "memory", body["backend"])
	assert.Equal(t, 0, blob.Reads(), "health check does not touch the store")
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Len(t, rec.Header().Get("X-Request-Id"), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-Id"))
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := do(t, srv, http.MethodOptions, "/api/filieres/it", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestGetDocument_Migrated(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/document", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var doc document.Document
	decode(t, rec, &doc)
	rh := doc.Filieres["rh"]
	require.NotNil(t, rh)
	assert.Equal(t, "📁", rh.Icon)
	assert.NotNil(t, rh.UsagesPhares)
}

func TestListFilieres(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/filieres/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []filiereView
	decode(t, rec, &views)
	require.Len(t, views, 2)
	assert.Equal(t, "it", views[0].Key)
	assert.Equal(t, "AVANCÉ", views[0].EtatLabel)

	rec = do(t, srv, http.MethodGet, "/api/filieres/?referent=Bruno", "")
	decode(t, rec, &views)
	require.Len(t, views, 1)
	assert.Equal(t, "rh", views[0].Key)

	rec = do(t, srv, http.MethodGet, "/api/filieres/?etat=initialisation", "")
	decode(t, rec, &views)
	assert.Empty(t, views)
}

func TestGetFiliere(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/filieres/it", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view filiereView
	decode(t, rec, &view)
	assert.Equal(t, "Systèmes d'information", view.Filiere.Nom)

	rec = do(t, srv, http.MethodGet, "/api/filieres/absente", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchFiliere(t *testing.T) {
	srv, blob := setupTestServer(t)

	rec := do(t, srv, http.MethodPatch, "/api/filieres/rh",
		`{"fopp_count": 4, "acces": {"copilot_licences": 7}, "responsable_pole_data": ["Alice", "Alice"]}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view filiereView
	decode(t, rec, &view)
	assert.Equal(t, 4, view.Filiere.FoppCount)

	rh := stored(t, blob).Filieres["rh"]
	assert.Equal(t, 4, rh.FoppCount)
	assert.Equal(t, 7, rh.Acces.CopilotLicences)
	assert.Equal(t, []string{"Alice"}, rh.ResponsablePoleData)
	assert.Equal(t, "Bruno", rh.ReferentMetier, "untouched fields are kept")
}

const unconfiguredDefaultJSON = `{
  "filieres": {"it": {"nom": "IT", "fopp_count": 2}},
  "etats_avancement": {"a_initier": {"label": "À initier"}}
}`

func TestPatchFiliere_MigratedDefaultState(t *testing.T) {
	blob := store.NewMemoryBlob([]byte(unconfiguredDefaultJSON))
	srv := NewServer(Config{Backend: "memory"}, repository.New(store.NewClient(blob, store.WithCacheTTL(0)), nil), nil)

	rec := do(t, srv, http.MethodPatch, "/api/filieres/it", `{"fopp_count": 5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	it := stored(t, blob).Filieres["it"]
	assert.Equal(t, 5, it.FoppCount)
	assert.Equal(t, "en_emergence", it.EtatAvancement)

	rec = do(t, srv, http.MethodPatch, "/api/filieres/it", `{"etat_avancement": "nulle_part"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodPatch, "/api/filieres/it", `{"etat_avancement": "a_initier"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestPutDocument_UnconfiguredStates(t *testing.T) {
	blob := store.NewMemoryBlob([]byte(unconfiguredDefaultJSON))
	srv := NewServer(Config{Backend: "memory"}, repository.New(store.NewClient(blob, store.WithCacheTTL(0)), nil), nil)

	body := `{
  "filieres": {"it": {"nom": "IT"}, "rh": {"nom": "RH", "etat_avancement": "termine"}},
  "etats_avancement": {"a_initier": {"label": "À initier"}}
}`
	rec := do(t, srv, http.MethodPut, "/api/document", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := stored(t, blob)
	assert.Equal(t, "en_emergence", doc.Filieres["it"].EtatAvancement)
	assert.Equal(t, "termine", doc.Filieres["rh"].EtatAvancement)
}

func TestPatchFiliere_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		body   string
		status int
	}{
		{"negative count", "it", `{"fopp_count": -1}`, http.StatusUnprocessableEntity},
		{"unconfigured state", "it", `{"etat_avancement": "nulle_part"}`, http.StatusUnprocessableEntity},
		{"unknown pole data", "it", `{"responsable_pole_data": ["Zoé"]}`, http.StatusUnprocessableEntity},
		{"unknown field", "it", `{"nombre_testeurs": 3}`, http.StatusBadRequest},
		{"malformed body", "it", `{"fopp_count":`, http.StatusBadRequest},
		{"unknown filiere", "absente", `{"fopp_count": 1}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, blob := setupTestServer(t)

			rec := do(t, srv, http.MethodPatch, "/api/filieres/"+tt.key, tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, 0, blob.Writes())
		})
	}
}

func TestAddEvent(t *testing.T) {
	srv, blob := setupTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/filieres/it/events",
		`{"titre": "COSUI", "description": "Comité de suivi"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ev document.Event
	decode(t, rec, &ev)
	assert.Equal(t, "2025-03-14", ev.Date)

	events := stored(t, blob).Filieres["it"].EvenementsRecents
	require.Len(t, events, 2)
	assert.Equal(t, "COSUI", events[0].Titre, "newest first")
	assert.Equal(t, "Atelier", events[1].Titre)
}

func TestAddEvent_MissingTitle(t *testing.T) {
	srv, blob := setupTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/filieres/it/events", `{"description": "x"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "titre", body["field"])
	assert.Equal(t, 0, blob.Reads())
}

func TestLoadFailure(t *testing.T) {
	srv, blob := setupTestServer(t)
	blob.SetErrors(&store.StatusError{Op: "read", Backend: "memory", StatusCode: http.StatusForbidden, Body: "Bad credentials"}, nil)

	rec := do(t, srv, http.MethodGet, "/api/stats", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, float64(http.StatusForbidden), body["status"])
	assert.Contains(t, body["error"], "chargement du document impossible")
}

func TestSaveFailure(t *testing.T) {
	srv, blob := setupTestServer(t)
	blob.SetErrors(nil, &store.StatusError{Op: "write", Backend: "memory", StatusCode: http.StatusUnprocessableEntity})

	rec := do(t, srv, http.MethodPatch, "/api/filieres/it", `{"fopp_count": 3}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, float64(http.StatusUnprocessableEntity), body["status"])
	assert.Equal(t, 2, stored(t, blob).Filieres["it"].FoppCount)
}

func TestStats(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body statsResponse
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, 40, body.CollaborateursSensibilises)
	assert.Equal(t, 200, body.CollaborateursTotal)
	assert.InDelta(t, 0.2, body.TauxSensibilisation, 1e-9)
	assert.Equal(t, 10, body.LaposteGPT)
}

func TestReferents(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/referents", "")

	var referents []string
	decode(t, rec, &referents)
	assert.Equal(t, []string{"Alice", "Bruno"}, referents)
}

func TestExportCSV(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/export.csv?etat=prompts_deployes", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "filieres_2025-03-14.csv")

	records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "it", records[1][0])
}

func TestPutDocument(t *testing.T) {
	srv, blob := setupTestServer(t)

	rec := do(t, srv, http.MethodPut, "/api/document",
		`{"filieres": {"rh": {"nom": "RH"}}, "etats_avancement": {"en_emergence": {"label": "En émergence"}}}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := stored(t, blob)
	require.Len(t, doc.Filieres, 1)
	assert.Equal(t, "en_emergence", doc.Filieres["rh"].EtatAvancement)
	assert.NotNil(t, doc.Filieres["rh"].EvenementsRecents)
}

func TestPutDocument_Rejected(t *testing.T) {
	srv, blob := setupTestServer(t)

	rec := do(t, srv, http.MethodPut, "/api/document", `{"filieres": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/document", `{"filieres": {"rh": {"fopp_count": "deux"}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/document",
		`{"filieres": {"rh": {"nom": "RH", "fopp_count": -2}}, "etats_avancement": {}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Equal(t, 0, blob.Writes())
}
