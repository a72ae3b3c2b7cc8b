package room

import (
	"errors"

	"github.com/dntxos/chesspotweb3/internal/game"
)

var (
	ErrRoomExists     = errors.New("room already exists")
	ErrRoomNotFound   = errors.New("room does not exist")
	ErrWrongPassword  = errors.New("wrong password")
	ErrRoomFull       = errors.New("room is full")
	ErrNotParticipant = errors.New("not a participant of this room")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrGameOver       = errors.New("game is over")
)

// Role reports how a join attempt was resolved.
type Role int

const (
	RoleNewJoin Role = iota
	RoleRejoin
)

// Participant is a stable player identity bound to one seat. ConnID is the
// current live connection and is empty while the player is disconnected;
// it is never used as identity across reconnects, PlayerID is.
type Participant struct {
	PlayerID string
	Address  string
	ConnID   string
}

// Room pairs up to two participants around one shared game. Seat 0 plays
// white, seat 1 plays black; the mapping is fixed for the room's lifetime.
// Rooms are not safe for concurrent use; the Store serializes access.
type Room struct {
	ID       string
	Password string

	seats [2]*Participant
	g     game.Game

	// announced guards the one-time gameEnd/attestation fanout.
	announced bool
}

func newRoom(id, password string, g game.Game) *Room {
	return &Room{ID: id, Password: password, g: g}
}

func (r *Room) FEN() string { return r.g.FEN() }

func (r *Room) Over() bool { return r.g.Over() }

func (r *Room) HasPassword() bool { return r.Password != "" }

// PlayerCount is the number of bound seats, connected or not.
func (r *Room) PlayerCount() int {
	n := 0
	for _, p := range r.seats {
		if p != nil {
			n++
		}
	}
	return n
}

// Connected is the number of seats with a live connection.
func (r *Room) Connected() int {
	n := 0
	for _, p := range r.seats {
		if p != nil && p.ConnID != "" {
			n++
		}
	}
	return n
}

// Winner names the winning color of a concluded game: the side that is
// not to move when the game ends.
func (r *Room) Winner() string {
	if r.g.Turn() == "w" {
		return "black"
	}
	return "white"
}

// WinnerParticipant returns the seat holding the winning color.
func (r *Room) WinnerParticipant() *Participant {
	if r.Winner() == "white" {
		return r.seats[0]
	}
	return r.seats[1]
}

// colorOf maps a seat index to its wire color name.
func colorOf(seat int) string {
	if seat == 0 {
		return "white"
	}
	return "black"
}

// turnOf maps a seat index to the engine's turn token.
func turnOf(seat int) string {
	if seat == 0 {
		return "w"
	}
	return "b"
}

// bindOrRejoin seats a player or reattaches a returning one. A seat already
// holding this playerId is rebound to the new connection and keeps its color,
// bypassing the password gate. Otherwise the password is checked and the
// first empty seat wins. started is true when this join bound the second
// seat.
func (r *Room) bindOrRejoin(connID, playerID, address, password string) (color string, role Role, started bool, err error) {
	for i, p := range r.seats {
		if p != nil && p.PlayerID == playerID {
			p.ConnID = connID
			if address != "" {
				p.Address = address
			}
			return colorOf(i), RoleRejoin, false, nil
		}
	}

	if r.Password != "" && r.Password != password {
		return "", 0, false, ErrWrongPassword
	}

	for i := range r.seats {
		if r.seats[i] == nil {
			r.seats[i] = &Participant{PlayerID: playerID, Address: address, ConnID: connID}
			return colorOf(i), RoleNewJoin, r.PlayerCount() == 2, nil
		}
	}
	return "", 0, false, ErrRoomFull
}

// applyMove resolves the seat owning connID, enforces turn order and
// conclusion, and delegates legality to the rules engine.
func (r *Room) applyMove(connID, from, to string) (game.Result, error) {
	seat := r.seatByConn(connID)
	if seat < 0 {
		return game.Result{}, ErrNotParticipant
	}
	if r.g.Over() {
		return game.Result{}, ErrGameOver
	}
	if r.g.Turn() != turnOf(seat) {
		return game.Result{}, ErrNotYourTurn
	}
	return r.g.Move(from, to)
}

// detach clears the connection handle of the seat owning connID. The seat
// binding itself survives for reconnection.
func (r *Room) detach(connID string) bool {
	seat := r.seatByConn(connID)
	if seat < 0 {
		return false
	}
	r.seats[seat].ConnID = ""
	return true
}

func (r *Room) seatByConn(connID string) int {
	if connID == "" {
		return -1
	}
	for i, p := range r.seats {
		if p != nil && p.ConnID == connID {
			return i
		}
	}
	return -1
}

// markAnnounced flips the one-shot conclusion latch. Reports whether this
// call was the first.
func (r *Room) markAnnounced() bool {
	if r.announced {
		return false
	}
	r.announced = true
	return true
}
