package room

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dntxos/chesspotweb3/internal/game"
)

// Store owns the roomId -> Room mapping and its durable snapshot. Every
// mutation goes through a Store method under one write lock; rooms are never
// handed out for raw mutation. That keeps the single-logical-writer
// discipline in one place while the read-only HTTP projection shares the
// lock as a reader.
type Store struct {
	log       *slog.Logger
	engine    game.Engine
	path      string
	keepEmpty bool

	mu    sync.RWMutex
	rooms map[string]*Room
}

// New creates an empty store persisting to path. keepEmpty controls whether
// rooms with no live connections survive the last disconnect.
func New(log *slog.Logger, engine game.Engine, path string, keepEmpty bool) *Store {
	return &Store{
		log:       log,
		engine:    engine,
		path:      path,
		keepEmpty: keepEmpty,
		rooms:     map[string]*Room{},
	}
}

// JoinResult reports how a join attempt was seated.
type JoinResult struct {
	FEN     string
	Color   string
	Role    Role
	Started bool
}

// Conclusion carries the one-time game-over fanout data.
type Conclusion struct {
	Winner     string
	WinnerAddr string
	WinnerConn string
	First      bool
}

// Summary is the directory listing projection of one room.
type Summary struct {
	RoomID      string `json:"roomId"`
	HasPassword bool   `json:"hasPassword"`
	PlayerCount int    `json:"playerCount"`
}

// Info is Summary plus the current position.
type Info struct {
	Summary
	FEN string `json:"fen"`
}

// Create makes a new room and seats the creator on the white seat.
func (s *Store) Create(roomID, password, connID, playerID, address string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; ok {
		return "", ErrRoomExists
	}
	r := newRoom(roomID, password, s.engine.New())
	s.rooms[roomID] = r
	r.bindOrRejoin(connID, playerID, address, password)
	return r.FEN(), nil
}

// Join seats a new participant or reattaches a returning one.
func (s *Store) Join(roomID, connID, playerID, address, password string) (JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return JoinResult{}, ErrRoomNotFound
	}
	color, role, started, err := r.bindOrRejoin(connID, playerID, address, password)
	if err != nil {
		return JoinResult{}, err
	}
	return JoinResult{FEN: r.FEN(), Color: color, Role: role, Started: started}, nil
}

// Move applies a move on behalf of the given connection.
func (s *Store) Move(roomID, connID, from, to string) (game.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return game.Result{}, ErrRoomNotFound
	}
	return r.applyMove(connID, from, to)
}

// Detach clears the connection handle owning connID, keeping the seat bound
// for reconnection. Returns the room id and the remaining live connections.
// When the keep-empty policy is off, a room with no live connections left is
// dropped.
func (s *Store) Detach(connID string) (string, []string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.rooms {
		if r.detach(connID) {
			if !s.keepEmpty && r.Connected() == 0 {
				delete(s.rooms, id)
			}
			return id, r.liveConns(), true
		}
	}
	return "", nil, false
}

// SetAddress binds a wallet address to the participant currently owning
// connID, if any.
func (s *Store) SetAddress(connID, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rooms {
		if seat := r.seatByConn(connID); seat >= 0 {
			r.seats[seat].Address = address
			return
		}
	}
}

// Conns returns the live connection ids of a room's seats.
func (s *Store) Conns(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	return r.liveConns()
}

// CheckConclusion reports whether the room's game has reached a terminal
// outcome. First is true only on the first call after conclusion, so the
// gameEnd fanout and attestation happen exactly once per process lifetime.
func (s *Store) CheckConclusion(roomID string) (Conclusion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok || !r.Over() {
		return Conclusion{}, false
	}
	c := Conclusion{Winner: r.Winner(), First: r.markAnnounced()}
	if p := r.WinnerParticipant(); p != nil {
		c.WinnerAddr = p.Address
		c.WinnerConn = p.ConnID
	}
	return c, true
}

// List returns directory summaries sorted by room id.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.rooms))
	for id, r := range s.rooms {
		out = append(out, Summary{RoomID: id, HasPassword: r.HasPassword(), PlayerCount: r.PlayerCount()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// Info returns the detailed projection of one room.
func (s *Store) Info(roomID string) (Info, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return Info{}, false
	}
	return Info{
		Summary: Summary{RoomID: roomID, HasPassword: r.HasPassword(), PlayerCount: r.PlayerCount()},
		FEN:     r.FEN(),
	}, true
}

func (r *Room) liveConns() []string {
	var out []string
	for _, p := range r.seats {
		if p != nil && p.ConnID != "" {
			out = append(out, p.ConnID)
		}
	}
	return out
}

// Snapshot file layout: object keyed by roomId.
type snapshotRoom struct {
	Password string           `json:"password,omitempty"`
	FEN      string           `json:"fen"`
	Players  []snapshotPlayer `json:"players"`
}

type snapshotPlayer struct {
	PlayerID string `json:"playerId"`
	Address  string `json:"address,omitempty"`
}

// Save rewrites the whole snapshot file. The write goes to a temp file first
// and is renamed into place so a crash cannot truncate the previous snapshot.
func (s *Store) Save() error {
	s.mu.RLock()
	snap := make(map[string]snapshotRoom, len(s.rooms))
	for id, r := range s.rooms {
		sr := snapshotRoom{Password: r.Password, FEN: r.FEN(), Players: []snapshotPlayer{}}
		for _, p := range r.seats {
			if p != nil {
				sr.Players = append(sr.Players, snapshotPlayer{PlayerID: p.PlayerID, Address: p.Address})
			}
		}
		snap[id] = sr
	}
	s.mu.RUnlock()

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the snapshot file if present and rebuilds rooms with detached
// participants. A missing file yields an empty store; a malformed one is an
// error the caller treats as fatal.
func (s *Store) Load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var snap map[string]snapshotRoom
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("snapshot %s corrupt: %w", filepath.Base(s.path), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sr := range snap {
		g, err := s.engine.Load(sr.FEN)
		if err != nil {
			return fmt.Errorf("snapshot room %s: %w", id, err)
		}
		r := newRoom(id, sr.Password, g)
		for i, p := range sr.Players {
			if i >= len(r.seats) {
				break
			}
			r.seats[i] = &Participant{PlayerID: p.PlayerID, Address: p.Address}
		}
		s.rooms[id] = r
	}
	s.log.Info("snapshot.loaded", "rooms", len(snap), "path", s.path)
	return nil
}
