package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/lekki-ent/marquee/internal/catalog"
	"github.com/lekki-ent/marquee/internal/display"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

var templateFuncs = template.FuncMap{
	"formatDate": catalog.FormatDate,
	"pad2":       func(n int) string { return fmt.Sprintf("%02d", n) },
	"inc":        func(n int) int { return n + 1 },
}

// pages maps a page name to its template set (layout + partials + page).
var pages = mustParsePages("home", "events", "event", "gallery", "about", "notfound")

func mustParsePages(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(embeddedTemplates,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			panic("templates missing: " + err.Error())
		}
		out[name] = t
	}
	return out
}

// pageView is the data handed to every page template.
type pageView struct {
	Nav      string
	Year     int
	Path     string
	Display  display.Snapshot
	Featured *catalog.Event
	Event    catalog.Event
	Upcoming []catalog.Event
	Past     []catalog.Event
	Photos   []catalog.Photo
}

func (s *Server) view(nav string) pageView {
	return pageView{Nav: nav, Year: s.now().Year()}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageView) {
	t, ok := pages[name]
	if !ok {
		http.Error(w, "page missing", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("render page failed", "page", name, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	data := s.view("home")
	data.Display = s.board.Current()
	if featured, ok := s.catalog.Featured(); ok {
		data.Featured = &featured
	}
	data.Photos = s.catalog.Highlights(s.highlightLimit)
	s.render(w, http.StatusOK, "home", data)
}

func (s *Server) handleEventsPage(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	data := s.view("events")
	data.Upcoming = s.catalog.Upcoming(now)
	data.Past = s.catalog.Past(now)
	s.render(w, http.StatusOK, "events", data)
}

func (s *Server) handleEventPage(w http.ResponseWriter, r *http.Request) {
	e, err := s.catalog.Find(r.PathValue("slug"))
	if err != nil {
		s.handleNotFound(w, r)
		return
	}
	data := s.view("events")
	data.Event = e
	s.render(w, http.StatusOK, "event", data)
}

func (s *Server) handleGalleryPage(w http.ResponseWriter, _ *http.Request) {
	data := s.view("gallery")
	data.Photos = s.catalog.Highlights(s.wallLimit)
	s.render(w, http.StatusOK, "gallery", data)
}

func (s *Server) handleAboutPage(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "about", s.view("about"))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	data := s.view("")
	data.Path = r.URL.Path
	s.render(w, http.StatusNotFound, "notfound", data)
}
