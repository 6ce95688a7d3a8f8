// Package api serves a battle to the rendering and menu client over HTTP.
// GET endpoints read the board; POST endpoints carry player input.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/talgya/battle-hexes/internal/engine"
	"github.com/talgya/battle-hexes/internal/events"
	"github.com/talgya/battle-hexes/internal/world"
)

const maxStreamConns = 8

// Server serves one game over HTTP.
type Server struct {
	Game   *engine.Game
	Events events.Subscriber // Nil disables the stream endpoint
	Port   int

	// Ctx bounds turns started from requests; request contexts end too soon.
	Ctx context.Context

	streamConns int32
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	limiter := NewRateLimiter(20, 40)

	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()

	limited := func(h http.HandlerFunc) http.Handler { return limiter.Middleware(h) }
	getOnly := func(h http.HandlerFunc) methodHandlers { return methodHandlers{http.MethodGet: h} }
	postOnly := func(h http.HandlerFunc) methodHandlers { return methodHandlers{http.MethodPost: limited(h)} }

	// One route per path; the method is checked by methodHandlers.
	v1.Handle("/status", getOnly(s.handleStatus))
	v1.Handle("/board", getOnly(s.handleBoard))
	v1.Handle("/units/{id}/reach", getOnly(s.handleReach))
	v1.Handle("/battles", getOnly(s.handleBattles))
	v1.Handle("/scores", getOnly(s.handleScores))
	v1.Handle("/stream", getOnly(s.handleStream))
	v1.Handle("/ws", getOnly(s.handleSocket))

	v1.Handle("/select", postOnly(s.handleSelect))
	v1.Handle("/hover", postOnly(s.handleHover))
	v1.Handle("/end-phase", postOnly(s.handleEndPhase))
	v1.Handle("/combat", postOnly(s.handleCombat))

	return corsMiddleware(r)
}

// methodHandlers dispatches a path by request method and answers 405 with an
// Allow header for any other method.
type methodHandlers map[string]http.Handler

func (m methodHandlers) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h.ServeHTTP(w, r)
		return
	}
	allowed := make([]string, 0, len(m))
	for method := range m {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

// Start begins serving in a goroutine and returns the server for shutdown.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "game", s.Game.ID())

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

func (s *Server) ctx() context.Context {
	if s.Ctx != nil {
		return s.Ctx
	}
	return context.Background()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// CORS_ORIGINS adds a comma-separated list to the localhost dev servers.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:8080": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Game.Status())
}

type unitView struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Type           string           `json:"type"`
	Faction        string           `json:"faction"`
	CounterColor   string           `json:"counter_color"`
	Player         string           `json:"player"`
	Attack         int              `json:"attack"`
	Defense        int              `json:"defense"`
	Movement       int              `json:"movement"`
	MovesRemaining int              `json:"moves_remaining"`
	MovePath       []world.HexCoord `json:"move_path,omitempty"`
	Opponents      []string         `json:"opponents,omitempty"`
}

type hexView struct {
	world.HexCoord
	Terrain       string           `json:"terrain"`
	TerrainColor  string           `json:"terrain_color"`
	MoveCost      int              `json:"move_cost"`
	Objective     *world.Objective `json:"objective,omitempty"`
	Selected      bool             `json:"selected,omitempty"`
	MoveHoverFrom *world.HexCoord  `json:"move_hover_from,omitempty"`
	HasCombat     bool             `json:"has_combat,omitempty"`
	Units         []unitView       `json:"units,omitempty"`
}

type boardView struct {
	Rows     int             `json:"rows"`
	Columns  int             `json:"columns"`
	Selected *world.HexCoord `json:"selected,omitempty"`
	Hover    *world.HexCoord `json:"hover,omitempty"`
	Hexes    []hexView       `json:"hexes"`
}

func newUnitView(u *world.Unit) unitView {
	v := unitView{
		ID:             u.ID,
		Name:           u.Name,
		Type:           u.Type,
		Player:         u.OwningPlayer().String(),
		Attack:         u.Attack,
		Defense:        u.Defense,
		Movement:       u.Movement,
		MovesRemaining: u.MovesRemaining(),
	}
	if f := u.Faction(); f != nil {
		v.Faction = f.Name
		v.CounterColor = f.CounterColor
	}
	for _, h := range u.MovePath() {
		v.MovePath = append(v.MovePath, h.Coord)
	}
	for _, o := range u.CombatOpponents() {
		v.Opponents = append(v.Opponents, o.ID)
	}
	return v
}

func coordPtr(h *world.Hex) *world.HexCoord {
	if h == nil {
		return nil
	}
	c := h.Coord
	return &c
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	var view boardView
	s.Game.View(func(b *world.Board) {
		view = boardView{
			Rows:     b.Rows(),
			Columns:  b.Columns(),
			Selected: coordPtr(b.SelectedHex()),
			Hover:    coordPtr(b.HoverHex()),
			Hexes:    make([]hexView, 0, b.Rows()*b.Columns()),
		}
		for _, h := range b.Hexes() {
			hv := hexView{
				HexCoord:      h.Coord,
				Terrain:       world.TerrainOpen.Name,
				TerrainColor:  world.TerrainOpen.Color,
				MoveCost:      h.MoveCost(),
				Objective:     h.Objective(),
				Selected:      h.IsSelected(),
				MoveHoverFrom: coordPtr(h.MoveHoverFrom()),
				HasCombat:     h.HasCombat(),
			}
			if t := h.Terrain(); t != nil {
				hv.Terrain, hv.TerrainColor = t.Name, t.Color
			}
			for _, u := range h.Units() {
				hv.Units = append(hv.Units, newUnitView(u))
			}
			view.Hexes = append(view.Hexes, hv)
		}
	})
	writeJSON(w, http.StatusOK, view)
}

type reachView struct {
	UnitID    string           `json:"unit_id"`
	From      world.HexCoord   `json:"from"`
	Reachable []world.HexCoord `json:"reachable"`
	Path      []world.HexCoord `json:"path,omitempty"` // Only with a row/column target
}

// handleReach lists the hexes a unit can reach this phase. With row and
// column query parameters it also returns the cheapest path to that hex.
func (s *Server) handleReach(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	target, err := queryCoord(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		view     reachView
		found    bool
		offBoard bool
	)
	s.Game.View(func(b *world.Board) {
		if target != nil && !b.InBounds(*target) {
			offBoard = true
			return
		}
		u := b.UnitByID(id)
		if u == nil || u.ContainingHex() == nil {
			return
		}
		found = true
		view = reachView{UnitID: u.ID, From: u.ContainingHex().Coord, Reachable: []world.HexCoord{}}
		for _, h := range b.ReachableHexes(u) {
			view.Reachable = append(view.Reachable, h.Coord)
		}
		if target != nil {
			view.Path = []world.HexCoord{}
			for _, h := range b.ShortestPath(u, b.Hex(*target)) {
				view.Path = append(view.Path, h.Coord)
			}
		}
	})
	switch {
	case offBoard:
		http.Error(w, fmt.Sprintf("target %s: %v", target, world.ErrOffBoard), http.StatusBadRequest)
	case !found:
		http.Error(w, fmt.Sprintf("unit %q: %v", id, world.ErrUnknownUnit), http.StatusNotFound)
	default:
		writeJSON(w, http.StatusOK, view)
	}
}

// queryCoord reads optional row and column query parameters.
func queryCoord(r *http.Request) (*world.HexCoord, error) {
	q := r.URL.Query()
	if q.Get("row") == "" && q.Get("column") == "" {
		return nil, nil
	}
	row, err := strconv.Atoi(q.Get("row"))
	if err != nil {
		return nil, fmt.Errorf("row: %w", err)
	}
	column, err := strconv.Atoi(q.Get("column"))
	if err != nil {
		return nil, fmt.Errorf("column: %w", err)
	}
	return &world.HexCoord{Row: row, Column: column}, nil
}

type battleView struct {
	Defender  string         `json:"defender"`
	At        world.HexCoord `json:"at"`
	Attackers []string       `json:"attackers"`
}

func (s *Server) handleBattles(w http.ResponseWriter, r *http.Request) {
	attacker := s.Game.CurrentPlayer()
	views := []battleView{}
	s.Game.View(func(b *world.Board) {
		for _, battle := range b.FindBattles(attacker) {
			v := battleView{Defender: battle.Defender.ID, At: battle.Defender.ContainingHex().Coord}
			for _, a := range battle.Attackers {
				v.Attackers = append(v.Attackers, a.ID)
			}
			views = append(views, v)
		}
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"attacker": attacker.Name,
		"battles":  views,
	})
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Game.Scores())
}

// decodeCoord reads an optional {row, column} body. An empty body or JSON
// null means no hex.
func decodeCoord(r *http.Request) (*world.HexCoord, error) {
	var c *world.HexCoord
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return c, nil
}

// humanTurn rejects input while a CPU controller is playing.
func (s *Server) humanTurn(w http.ResponseWriter) bool {
	if p := s.Game.CurrentPlayer(); !p.IsHuman() {
		http.Error(w, fmt.Sprintf("%s is playing", p.Name), http.StatusConflict)
		return false
	}
	return true
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if !s.humanTurn(w) {
		return
	}
	c, err := decodeCoord(r)
	if err != nil {
		http.Error(w, "invalid coordinate: "+err.Error(), http.StatusBadRequest)
		return
	}
	prev, err := s.Game.SelectHex(c)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": c, "previous": prev})
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	c, err := decodeCoord(r)
	if err != nil {
		http.Error(w, "invalid coordinate: "+err.Error(), http.StatusBadRequest)
		return
	}
	prev, err := s.Game.SetHoverHex(c)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hover": c, "previous": prev})
}

func (s *Server) handleEndPhase(w http.ResponseWriter, r *http.Request) {
	if !s.humanTurn(w) {
		return
	}
	switched, err := s.Game.FinishPhase(r.Context())
	if err != nil {
		slog.Error("end phase failed", "game", s.Game.ID(), "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if switched {
		s.Game.Kick(s.ctx())
	}
	writeJSON(w, http.StatusOK, s.Game.Status())
}

func (s *Server) handleCombat(w http.ResponseWriter, r *http.Request) {
	if !s.humanTurn(w) {
		return
	}
	if phase := s.Game.CurrentPhase(); phase != engine.PhaseCombat {
		http.Error(w, fmt.Sprintf("combat is not allowed during %s", phase), http.StatusConflict)
		return
	}

	var outcome engine.CombatOutcome
	err := s.Game.ResolveCombat(r.Context(), func(o engine.CombatOutcome) { outcome = o })
	if err != nil {
		slog.Error("combat resolution failed", "game", s.Game.ID(), "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results":    outcome.Results,
		"eliminated": outcome.Report.Eliminated,
		"moved":      outcome.Report.Moved,
	})
}

// handleStream relays board and menu notifications as server-sent events.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Events == nil {
		http.Error(w, "streaming disabled", http.StatusNotFound)
		return
	}

	current := atomic.AddInt32(&s.streamConns, 1)
	defer atomic.AddInt32(&s.streamConns, -1)
	if current > maxStreamConns {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch, err := s.subscribeNotices(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	slog.Info("SSE client connected", "remote", r.RemoteAddr)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case ev := <-ch:
			writeSSEEvent(w, ev)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-ctx.Done():
			slog.Info("SSE client disconnected", "remote", r.RemoteAddr)
			return
		}
	}
}

// subscribeNotices forwards board and menu notices to the returned channel
// until ctx is done.
func (s *Server) subscribeNotices(ctx context.Context) (<-chan events.Event, error) {
	ch := make(chan events.Event, 16)
	forward := func(ctx context.Context, ev events.Event) error {
		select {
		case ch <- ev:
		case <-ctx.Done():
		default:
			// Slow client; it re-reads the board on the next notice anyway.
		}
		return nil
	}
	for _, topic := range []string{events.TopicBoardRedraw, events.TopicMenuUpdate} {
		if err := s.Events.Subscribe(ctx, topic, forward); err != nil {
			return nil, err
		}
	}
	return ch, nil
}

// writeSSEEvent writes a single event in SSE format.
func writeSSEEvent(w http.ResponseWriter, ev events.Event) {
	data, err := json.Marshal(ev.Notice)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Topic, data)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
