package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dntxos/chesspotweb3/internal/room"
	"github.com/dntxos/chesspotweb3/pkg/metrics"
)

// sender is the outbound half of a connection. Tests substitute stubs.
type sender interface {
	ID() string
	send(event string, data any)
}

// Attester produces the payout signature for a concluded room.
type Attester interface {
	Attest(roomID, winner string) (string, error)
}

// Gateway maps inbound transport events to room operations and fans the
// results back out. One mutex serializes every dispatch, so no two mutations
// of the same room ever race and broadcasts keep mutation order.
type Gateway struct {
	log    *slog.Logger
	store  *room.Store
	signer Attester // nil runs unsigned

	mu    sync.Mutex
	conns map[string]sender
	addrs map[string]string // wallet address set before the conn joins a room
}

func NewGateway(log *slog.Logger, store *room.Store, signer Attester) *Gateway {
	return &Gateway{
		log:    log,
		store:  store,
		signer: signer,
		conns:  map[string]sender{},
		addrs:  map[string]string{},
	}
}

// ServeWS handles one /ws connection for its whole lifetime.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wsc, err := Accept(w, r)
	if err != nil {
		g.log.Error("ws.accept", "err", err)
		return
	}

	c := NewConn(wsc)
	g.attach(c)
	metrics.ConnectionsActive.Inc()
	g.log.Debug("ws.connected", "conn", c.ID())

	go c.WriteLoop(ctx)

	for {
		frame, ok := c.Read(ctx)
		if !ok {
			break
		}
		g.dispatch(c, frame)
	}

	g.disconnect(c)
	metrics.ConnectionsActive.Dec()
	_ = c.Close()
	g.log.Debug("ws.disconnected", "conn", c.ID())
}

func (g *Gateway) attach(s sender) {
	g.mu.Lock()
	g.conns[s.ID()] = s
	g.mu.Unlock()
}

// dispatch routes one inbound frame. Runs under the gateway mutex end to
// end: mutation, fanout, and snapshot write of one event complete before the
// next event starts.
func (g *Gateway) dispatch(s sender, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		s.send(EvRoomError, "bad payload")
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch env.Event {
	case EvCreateRoom:
		g.handleCreateRoom(s, env.Data)
	case EvJoinRoom:
		g.handleJoinRoom(s, env.Data)
	case EvMove:
		g.handleMove(s, env.Data)
	case EvSetAddress:
		g.handleSetAddress(s, env.Data)
	default:
		s.send(EvRoomError, "unknown event")
	}
}

func (g *Gateway) handleCreateRoom(s sender, data json.RawMessage) {
	var req createRoomReq
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		s.send(EvRoomError, "bad payload")
		return
	}

	fen, err := g.store.Create(req.RoomID, req.Password, s.ID(), req.PlayerID, g.addrs[s.ID()])
	if err != nil {
		s.send(EvRoomError, err.Error())
		return
	}

	s.send(EvRoomCreated, roomState{RoomID: req.RoomID, FEN: fen})
	s.send(EvPlayerColor, "white")
	metrics.RoomsCreated.Inc()
	g.log.Info("room.created", "room", req.RoomID, "player", req.PlayerID)
	g.persist()
}

func (g *Gateway) handleJoinRoom(s sender, data json.RawMessage) {
	var req joinRoomReq
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		s.send(EvRoomError, "bad payload")
		return
	}

	res, err := g.store.Join(req.RoomID, s.ID(), req.PlayerID, g.addrs[s.ID()], req.Password)
	if err != nil {
		s.send(EvRoomError, err.Error())
		// Terminality is still re-checked after a failed attempt so a
		// verdict pending from before a restart reaches the seated
		// players.
		g.checkConclusion(req.RoomID)
		return
	}

	s.send(EvRoomJoined, roomState{RoomID: req.RoomID, FEN: res.FEN})
	s.send(EvPlayerColor, res.Color)

	if res.Started {
		g.broadcast(req.RoomID, EvGameStart, gameStart{FEN: res.FEN})
	}
	if res.Role == room.RoleNewJoin {
		g.log.Info("room.joined", "room", req.RoomID, "player", req.PlayerID, "color", res.Color)
		g.persist()
	} else {
		g.log.Info("room.rejoined", "room", req.RoomID, "player", req.PlayerID, "color", res.Color)
	}

	// A participant may be rejoining a game that concluded while it was
	// away (or before a restart); let it collect the verdict.
	g.checkConclusion(req.RoomID)
}

func (g *Gateway) handleMove(s sender, data json.RawMessage) {
	var req moveReq
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		s.send(EvInvalidMove, "bad payload")
		return
	}

	res, err := g.store.Move(req.RoomID, s.ID(), req.Move.From, req.Move.To)
	if err != nil {
		s.send(EvInvalidMove, err.Error())
		return
	}

	g.broadcast(req.RoomID, EvMoveMade, moveMade{
		FEN:      res.FEN,
		Turn:     res.Turn,
		InCheck:  res.InCheck,
		GameOver: res.GameOver,
	})
	metrics.MovesApplied.Inc()

	g.checkConclusion(req.RoomID)
	g.persist()
}

func (g *Gateway) handleSetAddress(s sender, data json.RawMessage) {
	var addr string
	if err := json.Unmarshal(data, &addr); err != nil {
		s.send(EvRoomError, "bad payload")
		return
	}
	g.addrs[s.ID()] = addr
	g.store.SetAddress(s.ID(), addr)
}

// checkConclusion fans out the verdict of a concluded game: one gameEnd to
// every live seat, plus a single signature-bearing unicast to the winner's
// connection. The store's first-announcement latch keeps both one-time.
func (g *Gateway) checkConclusion(roomID string) {
	c, over := g.store.CheckConclusion(roomID)
	if !over || !c.First {
		return
	}

	g.broadcast(roomID, EvGameEnd, gameEnd{Winner: c.Winner})
	metrics.GamesConcluded.Inc()
	g.log.Info("game.concluded", "room", roomID, "winner", c.Winner)

	if g.signer == nil || c.WinnerAddr == "" {
		g.log.Warn("attestation.skipped", "room", roomID, "haveSigner", g.signer != nil, "haveAddress", c.WinnerAddr != "")
		return
	}
	sig, err := g.signer.Attest(roomID, c.WinnerAddr)
	if err != nil {
		// The unsigned broadcast already went out; the winner can still
		// reclaim the signature by rejoining later.
		g.log.Error("attestation.sign", "room", roomID, "err", err)
		return
	}
	if wc := g.conns[c.WinnerConn]; wc != nil {
		wc.send(EvGameEnd, gameEnd{Winner: c.Winner, Signature: sig, RoomID: roomID})
	}
}

// disconnect detaches the connection from its seat (the seat binding itself
// survives for reconnection) and notifies the remaining participants.
func (g *Gateway) disconnect(s sender) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.conns, s.ID())
	delete(g.addrs, s.ID())

	roomID, remaining, ok := g.store.Detach(s.ID())
	if !ok {
		return
	}
	for _, id := range remaining {
		if c := g.conns[id]; c != nil {
			c.send(EvPlayerDisconnected, nil)
		}
	}
	g.log.Info("room.detached", "room", roomID, "conn", s.ID())
}

// broadcast sends to every live connection seated in the room.
func (g *Gateway) broadcast(roomID, event string, data any) {
	for _, id := range g.store.Conns(roomID) {
		if c := g.conns[id]; c != nil {
			c.send(event, data)
		}
	}
}

// persist rewrites the snapshot; failures are logged and the in-memory
// state stays authoritative.
func (g *Gateway) persist() {
	if err := g.store.Save(); err != nil {
		g.log.Error("snapshot.save", "err", err)
	}
}
