package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kinboard/pkg/cache"
	"github.com/matzehuels/kinboard/pkg/canvas"
	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
	"github.com/matzehuels/kinboard/pkg/kinship"
	"github.com/matzehuels/kinboard/pkg/render/nodelink"
	"github.com/matzehuels/kinboard/pkg/render/svg"
)

// relationView is the body of GET /api/members/{id}/relation.
type relationView struct {
	ID       string   `json:"id"`
	SelfID   string   `json:"selfId,omitempty"`
	Found    bool     `json:"found"`
	Relation string   `json:"relation,omitempty"`
	Path     []string `json:"path,omitempty"`
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// =============================================================================
// Members
// =============================================================================

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.svc.Store.ListMembers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if members == nil {
		members = []family.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) getMember(w http.ResponseWriter, r *http.Request) {
	_, m, ok := s.member(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// member loads the tree and the member named by the {id} route parameter,
// writing a 404 when it is missing.
func (s *Server) member(w http.ResponseWriter, r *http.Request) (family.Snapshot, family.Member, bool) {
	snap, err := s.svc.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return snap, family.Member{}, false
	}
	id := chi.URLParam(r, "id")
	m, ok := snap.Member(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeMemberNotFound, "member %s", id))
		return snap, family.Member{}, false
	}
	return snap, m, true
}

func (s *Server) createMember(w http.ResponseWriter, r *http.Request) {
	var m family.Member
	if err := decode(r, &m); err != nil {
		writeError(w, err)
		return
	}
	if m.ID == "" {
		m.ID = family.NewID()
	}
	if m.Gender == "" {
		m.Gender = family.Male
	}
	if err := family.Validate(m); err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.SaveMember(r.Context(), m, false); err != nil {
		writeError(w, err)
		return
	}
	s.hub.broadcast(nil)
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) updateMember(w http.ResponseWriter, r *http.Request) {
	_, current, ok := s.member(w, r)
	if !ok {
		return
	}
	var m family.Member
	if err := decode(r, &m); err != nil {
		writeError(w, err)
		return
	}
	m.ID = current.ID
	if m.Gender == "" {
		m.Gender = current.Gender
	}
	if err := family.Validate(m); err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.SaveMember(r.Context(), m, true); err != nil {
		writeError(w, err)
		return
	}
	s.hub.broadcast(nil)
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	s.hub.broadcast(nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getRelation(w http.ResponseWriter, r *http.Request) {
	snap, m, ok := s.member(w, r)
	if !ok {
		return
	}
	zh := localized(r, s.opts.Localize)
	view := relationView{ID: m.ID}
	if self, ok := snap.Self(); ok {
		view.SelfID = self.ID
	}
	view.Path, view.Found = kinship.Path(m.ID, snap.Members, snap.Connections, zh)
	if view.Found {
		view.Relation = strings.Join(view.Path, kinship.Separator)
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) getFamily(w http.ResponseWriter, r *http.Request) {
	snap, m, ok := s.member(w, r)
	if !ok {
		return
	}
	relatives := family.ImmediateFamily(snap, m.ID, localized(r, s.opts.Localize))
	if relatives == nil {
		relatives = []family.Relative{}
	}
	writeJSON(w, http.StatusOK, relatives)
}

// =============================================================================
// Connections
// =============================================================================

func (s *Server) listConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.svc.Store.ListConnections(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if conns == nil {
		conns = []family.Connection{}
	}
	writeJSON(w, http.StatusOK, conns)
}

// checkEndpoints rejects connections whose members do not exist.
func (s *Server) checkEndpoints(r *http.Request, c family.Connection) error {
	snap, err := s.svc.Load(r.Context())
	if err != nil {
		return err
	}
	for _, id := range []string{c.SourceID, c.TargetID} {
		if _, ok := snap.Member(id); !ok {
			return errors.New(errors.ErrCodeInvalidInput, "connection endpoint %s does not exist", id)
		}
	}
	return nil
}

func (s *Server) createConnection(w http.ResponseWriter, r *http.Request) {
	var c family.Connection
	if err := decode(r, &c); err != nil {
		writeError(w, err)
		return
	}
	if c.ID == "" {
		c.ID = family.NewID()
	}
	if c.SourceHandle == "" {
		c.SourceHandle = geometry.HandleBottom
	}
	if c.TargetHandle == "" {
		c.TargetHandle = geometry.HandleTop
	}
	if c.Label == "" && c.LabelZh == "" {
		c.Label, c.LabelZh = family.DefaultLabel, family.DefaultLabelZh
	}
	if err := family.Validate(c); err != nil {
		writeError(w, err)
		return
	}
	if err := s.checkEndpoints(r, c); err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.SaveConnection(r.Context(), c, false); err != nil {
		writeError(w, err)
		return
	}
	s.hub.broadcast(nil)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateConnection(w http.ResponseWriter, r *http.Request) {
	var c family.Connection
	if err := decode(r, &c); err != nil {
		writeError(w, err)
		return
	}
	c.ID = chi.URLParam(r, "id")
	if err := family.Validate(c); err != nil {
		writeError(w, err)
		return
	}
	if err := s.checkEndpoints(r, c); err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.SaveConnection(r.Context(), c, true); err != nil {
		writeError(w, err)
		return
	}
	s.hub.broadcast(nil)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteConnection(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	s.hub.broadcast(nil)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Rendering
// =============================================================================

func (s *Server) renderSVG(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	zh := localized(r, s.opts.Localize)
	title := r.URL.Query().Get("title")
	key := cache.RenderKey(snap, "svg", map[string]any{"zh": zh, "title": title, "card": s.opts.CardSize})
	doc, err := cache.GetOrCompute(r.Context(), s.opts.Cache, key, renderCacheTTL, func() ([]byte, error) {
		model := canvas.Project(snap, canvas.Idle{}, geometry.NewViewport(), canvas.ProjectOptions{
			CardSize: s.opts.CardSize,
			Localize: zh,
			Locked:   true,
		})
		return svg.Render(model, svg.WithTitle(title)), nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(doc)
}

func (s *Server) renderDOT(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	opts := nodelink.Options{
		Localize:  localized(r, s.opts.Localize),
		Relations: true,
		CardSize:  s.opts.CardSize,
	}
	dot := nodelink.ToDOT(snap, opts)
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write([]byte(dot))
}
