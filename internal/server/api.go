package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/n0roo/filiere-kit/internal/document"
	"github.com/n0roo/filiere-kit/internal/export"
	"github.com/n0roo/filiere-kit/internal/filiere"
	"github.com/n0roo/filiere-kit/internal/schema"
	"github.com/n0roo/filiere-kit/internal/server/events"
)

const maxBodyBytes = 5 << 20

// filiereView is one filière as returned by the API
type filiereView struct {
	Key       string            `json:"key"`
	EtatLabel string            `json:"etat_label"`
	Filiere   *document.Filiere `json:"filiere"`
}

func newFiliereView(doc *document.Document, key string, f *document.Filiere) filiereView {
	return filiereView{
		Key:       key,
		EtatLabel: filiere.StateLabel(doc, f.EtatAvancement),
		Filiere:   f,
	}
}

type statsResponse struct {
	filiere.Stats
	TauxSensibilisation float64 `json:"taux_sensibilisation"`
}

type eventRequest struct {
	Date        string `json:"date"`
	Titre       string `json:"titre"`
	Description string `json:"description"`
}

func filterFrom(r *http.Request) filiere.Filter {
	q := r.URL.Query()
	return filiere.Filter{Etat: q.Get("etat"), Referent: q.Get("referent")}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

func (s *Server) publish(r *http.Request, ev *events.Event) {
	s.hub.Broadcast(ev.WithRequest(middleware.GetReqID(r.Context())))
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.repo.Load(r.Context())
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

// handlePutDocument replaces the whole document. Records are brought up to
// the current schema before saving.
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, err := document.DecodeRaw(body)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	schema.MigrateAll(raw.Filieres)
	doc, err := document.FromRaw(raw)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, key := range doc.Keys() {
		if err := filiere.Validate(doc, doc.Filieres[key], s.config.Rules); err != nil {
			s.failure(w, r, fmt.Errorf("%s: %w", key, err))
			return
		}
	}

	if err := s.repo.Save(r.Context(), doc); err != nil {
		s.failure(w, r, err)
		return
	}

	s.publish(r, events.NewEvent(events.EventDocumentSaved, events.DocumentSavedData{
		Filieres: len(doc.Filieres),
		Backend:  s.config.Backend,
	}))
	s.jsonResponse(w, http.StatusOK, doc)
}

func (s *Server) handleListFilieres(w http.ResponseWriter, r *http.Request) {
	doc, err := s.repo.Load(r.Context())
	if err != nil {
		s.failure(w, r, err)
		return
	}

	entries := filiere.Select(doc, filterFrom(r))
	views := make([]filiereView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newFiliereView(doc, e.Key, e.Filiere))
	}
	s.jsonResponse(w, http.StatusOK, views)
}

func (s *Server) handleGetFiliere(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	doc, err := s.repo.Load(r.Context())
	if err != nil {
		s.failure(w, r, err)
		return
	}
	f, err := filiere.Lookup(doc, key)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newFiliereView(doc, key, f))
}

// handlePatchFiliere applies a partial edit. Unknown fields are rejected.
func (s *Server) handlePatchFiliere(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	body, err := readBody(w, r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("corps JSON invalide: %v", err))
		return
	}
	var patch filiere.Patch
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("modification invalide: %v", err))
		return
	}

	var edited *document.Filiere
	doc, err := s.repo.Update(r.Context(), func(doc *document.Document) error {
		f, err := filiere.Lookup(doc, key)
		if err != nil {
			return err
		}
		edited = f.Clone()
		patch.Apply(edited)
		if err := filiere.ValidateEdit(doc, f, edited, s.config.Rules); err != nil {
			return err
		}
		doc.Filieres[key] = edited
		return nil
	})
	if err != nil {
		s.failure(w, r, err)
		return
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	s.logger.Info("filiere updated", zap.String("filiere", key), zap.Strings("fields", names))
	s.publish(r, events.NewEvent(events.EventFiliereUpdated, events.FiliereUpdatedData{Fields: names}).WithFiliere(key))
	s.jsonResponse(w, http.StatusOK, newFiliereView(doc, key, edited))
}

// handleAddEvent prepends a recent event. An empty date means today.
func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	body, err := readBody(w, r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	var req eventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("corps JSON invalide: %v", err))
		return
	}

	ev, err := filiere.NewEvent(s.now(), req.Date, req.Titre, req.Description)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	_, err = s.repo.Update(r.Context(), func(doc *document.Document) error {
		f, err := filiere.Lookup(doc, key)
		if err != nil {
			return err
		}
		filiere.AddEvent(f, ev)
		return nil
	})
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.logger.Info("event added", zap.String("filiere", key), zap.String("titre", ev.Titre))
	s.publish(r, events.NewEvent(events.EventEventAdded, events.EventAddedData{Date: ev.Date, Titre: ev.Titre}).WithFiliere(key))
	s.jsonResponse(w, http.StatusCreated, ev)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	doc, err := s.repo.Load(r.Context())
	if err != nil {
		s.failure(w, r, err)
		return
	}

	stats := filiere.Compute(doc, filiere.Select(doc, filterFrom(r)))
	s.jsonResponse(w, http.StatusOK, statsResponse{
		Stats:               stats,
		TauxSensibilisation: stats.TauxSensibilisation(),
	})
}

func (s *Server) handleReferents(w http.ResponseWriter, r *http.Request) {
	doc, err := s.repo.Load(r.Context())
	if err != nil {
		s.failure(w, r, err)
		return
	}
	referents := filiere.Referents(doc)
	if referents == nil {
		referents = []string{}
	}
	s.jsonResponse(w, http.StatusOK, referents)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	doc, err := s.repo.Load(r.Context())
	if err != nil {
		s.failure(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, doc, filiere.Select(doc, filterFrom(r))); err != nil {
		s.failure(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="filieres_%s.csv"`, s.now().Format(filiere.DateLayout)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
