package game

import (
	"errors"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrIllegalMove is returned when the rules engine rejects a candidate move.
var ErrIllegalMove = errors.New("illegal move")

// Result is the state reported after a successfully applied move.
type Result struct {
	FEN      string
	Turn     string // "w" or "b", the side to move after the move
	InCheck  bool
	GameOver bool
}

// Game is one live chess position. Implementations are not safe for
// concurrent use; callers serialize access.
type Game interface {
	FEN() string
	// Turn returns "w" or "b" for the side to move.
	Turn() string
	// Over reports whether the game has reached a terminal outcome.
	Over() bool
	// Move applies a from/to square pair (e.g. "e2", "e4"). Pawn promotions
	// default to a queen. Returns ErrIllegalMove if the engine rejects it.
	Move(from, to string) (Result, error)
}

// Engine creates and restores games.
type Engine interface {
	New() Game
	Load(fen string) (Game, error)
}

// ChessEngine implements Engine on top of corentings/chess.
type ChessEngine struct{}

func NewEngine() ChessEngine { return ChessEngine{} }

func (ChessEngine) New() Game { return &chessGame{g: nchess.NewGame()} }

func (ChessEngine) Load(fen string) (Game, error) {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, err
	}
	return &chessGame{g: nchess.NewGame(opt)}, nil
}

type chessGame struct {
	g *nchess.Game
}

func (c *chessGame) FEN() string { return c.g.FEN() }

func (c *chessGame) Turn() string { return c.g.Position().Turn().String() }

func (c *chessGame) Over() bool { return c.g.Outcome() != nchess.NoOutcome }

func (c *chessGame) Move(from, to string) (Result, error) {
	pos := c.g.Position()

	mv, ok := matchValidMove(pos, strings.ToLower(from+to))
	if !ok {
		return Result{}, ErrIllegalMove
	}

	// PushMove is the only move-applying entry point; feed it the SAN of
	// the already-validated move.
	san := nchess.AlgebraicNotation{}.Encode(pos, mv)
	if err := c.g.PushMove(san, nil); err != nil {
		return Result{}, ErrIllegalMove
	}

	return Result{
		FEN:  c.g.FEN(),
		Turn: c.g.Position().Turn().String(),
		// The move generator tags every legal move that attacks the
		// opposing king; notation text is not reliable for this.
		InCheck:  mv.HasTag(nchess.Check),
		GameOver: c.Over(),
	}, nil
}

// matchValidMove resolves a bare from/to square pair against the legal moves
// of the position. A pair that only exists as a promotion resolves to the
// queen promotion.
func matchValidMove(pos *nchess.Position, uci string) (*nchess.Move, bool) {
	valid := pos.ValidMoves()
	for i := range valid {
		enc := nchess.UCINotation{}.Encode(nil, &valid[i])
		if enc == uci || enc == uci+"q" {
			return &valid[i], true
		}
	}
	return nil, false
}
