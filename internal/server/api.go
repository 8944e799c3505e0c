package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/lekki-ent/marquee/internal/catalog"
	"github.com/lekki-ent/marquee/internal/display"
	"github.com/lekki-ent/marquee/internal/rotation"
)

const maxSlidesBody = 1 << 20

type heroResponse struct {
	Index int              `json:"index"`
	Hero  display.HeroView `json:"hero"`
}

type slidesRequest struct {
	Slides []rotation.Slide `json:"slides"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var list []catalog.Event
	switch when := r.URL.Query().Get("when"); when {
	case "", "all":
		list = s.catalog.All()
	case "upcoming":
		list = s.catalog.Upcoming(s.now())
	case "past":
		list = s.catalog.Past(s.now())
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown filter %q", when))
		return
	}
	if list == nil {
		list = []catalog.Event{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.catalog.Find(r.PathValue("slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	photos := s.catalog.Highlights(parseLimit(r, s.wallLimit))
	if photos == nil {
		photos = []catalog.Photo{}
	}
	writeJSON(w, http.StatusOK, photos)
}

func (s *Server) handleDisplay(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.board.Current())
}

func (s *Server) handleHeroNext(w http.ResponseWriter, _ *http.Request) {
	s.respondHero(w, s.board.Next)
}

func (s *Server) handleHeroPrev(w http.ResponseWriter, _ *http.Request) {
	s.respondHero(w, s.board.Prev)
}

func (s *Server) handleHeroJump(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("index")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid index %q", raw))
		return
	}
	s.respondHero(w, func() (int, error) { return s.board.JumpTo(index) })
}

func (s *Server) handleHeroSlides(w http.ResponseWriter, r *http.Request) {
	var req slidesRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSlidesBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid slides payload: "+err.Error())
		return
	}
	if err := s.board.ReplaceSlides(req.Slides); err != nil {
		writeError(w, heroStatus(err), err.Error())
		return
	}
	hero := s.board.Current().Hero
	writeJSON(w, http.StatusOK, heroResponse{Index: hero.Index, Hero: hero})
}

func (s *Server) respondHero(w http.ResponseWriter, move func() (int, error)) {
	index, err := move()
	if err != nil {
		writeError(w, heroStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, heroResponse{Index: index, Hero: s.board.Current().Hero})
}

func heroStatus(err error) int {
	switch {
	case errors.Is(err, rotation.ErrEmptySlideSet):
		return http.StatusBadRequest
	case errors.Is(err, display.ErrNoHero):
		return http.StatusConflict
	case errors.Is(err, display.ErrClosed), errors.Is(err, rotation.ErrInvalidHandle):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
