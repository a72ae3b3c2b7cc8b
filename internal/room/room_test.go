package room

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dntxos/chesspotweb3/internal/game"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, keepEmpty bool) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rooms.json")
	return New(testLogger(), game.NewEngine(), path, keepEmpty)
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	s := newTestStore(t, true)

	fen, err := s.Create("r1", "", "c1", "playerA", "")
	require.NoError(t, err)
	require.Equal(t, game.StartFEN, fen)

	_, err = s.Create("r1", "", "c2", "playerB", "")
	require.ErrorIs(t, err, ErrRoomExists)
}

func TestJoinSeatsSecondPlayerAndStarts(t *testing.T) {
	s := newTestStore(t, true)
	_, err := s.Create("r1", "", "c1", "playerA", "")
	require.NoError(t, err)

	res, err := s.Join("r1", "c2", "playerB", "", "")
	require.NoError(t, err)
	require.Equal(t, "black", res.Color)
	require.Equal(t, RoleNewJoin, res.Role)
	require.True(t, res.Started)

	_, err = s.Join("r1", "c3", "playerC", "", "")
	require.ErrorIs(t, err, ErrRoomFull)

	_, err = s.Join("nope", "c3", "playerC", "", "")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinPasswordGate(t *testing.T) {
	s := newTestStore(t, true)
	_, err := s.Create("r1", "hunter2", "c1", "playerA", "")
	require.NoError(t, err)

	_, err = s.Join("r1", "c2", "playerB", "", "wrong")
	require.ErrorIs(t, err, ErrWrongPassword)

	info, ok := s.Info("r1")
	require.True(t, ok)
	require.Equal(t, 1, info.PlayerCount)
	require.True(t, info.HasPassword)

	res, err := s.Join("r1", "c2", "playerB", "", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "black", res.Color)
}

func TestRejoinKeepsColorAndSkipsPassword(t *testing.T) {
	s := newTestStore(t, true)
	_, err := s.Create("r1", "hunter2", "c1", "playerA", "")
	require.NoError(t, err)
	_, err = s.Join("r1", "c2", "playerB", "", "hunter2")
	require.NoError(t, err)

	roomID, remaining, ok := s.Detach("c2")
	require.True(t, ok)
	require.Equal(t, "r1", roomID)
	require.Equal(t, []string{"c1"}, remaining)

	// Seat binding survives the disconnect.
	info, _ := s.Info("r1")
	require.Equal(t, 2, info.PlayerCount)

	// Reconnect with the same playerId keeps the color; the password gate
	// does not apply to a seat the player already owns.
	res, err := s.Join("r1", "c9", "playerB", "", "wrong")
	require.NoError(t, err)
	require.Equal(t, RoleRejoin, res.Role)
	require.Equal(t, "black", res.Color)
	require.False(t, res.Started)
}

func TestMoveAuthorization(t *testing.T) {
	s := newTestStore(t, true)
	_, err := s.Create("r1", "", "c1", "playerA", "")
	require.NoError(t, err)
	_, err = s.Join("r1", "c2", "playerB", "", "")
	require.NoError(t, err)

	_, err = s.Move("r1", "c2", "e7", "e5")
	require.ErrorIs(t, err, ErrNotYourTurn)

	_, err = s.Move("r1", "stranger", "e2", "e4")
	require.ErrorIs(t, err, ErrNotParticipant)

	_, err = s.Move("r1", "c1", "e2", "e5")
	require.ErrorIs(t, err, game.ErrIllegalMove)

	// Rejections leave the position untouched.
	info, _ := s.Info("r1")
	require.Equal(t, game.StartFEN, info.FEN)

	res, err := s.Move("r1", "c1", "e2", "e4")
	require.NoError(t, err)
	require.Equal(t, "b", res.Turn)

	_, err = s.Move("nope", "c1", "e2", "e4")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func playFoolsMate(t *testing.T, s *Store) {
	t.Helper()
	for _, m := range [][3]string{
		{"c1", "f2", "f3"},
		{"c2", "e7", "e5"},
		{"c1", "g2", "g4"},
		{"c2", "d8", "h4"},
	} {
		_, err := s.Move("r1", m[0], m[1], m[2])
		require.NoError(t, err)
	}
}

func TestConcludedRoomRejectsMoves(t *testing.T) {
	s := newTestStore(t, true)
	_, err := s.Create("r1", "", "c1", "playerA", "")
	require.NoError(t, err)
	_, err = s.Join("r1", "c2", "playerB", "", "")
	require.NoError(t, err)

	playFoolsMate(t, s)

	_, err = s.Move("r1", "c1", "a2", "a3")
	require.ErrorIs(t, err, ErrGameOver)
}

func TestCheckConclusionLatchesOnce(t *testing.T) {
	s := newTestStore(t, true)
	_, err := s.Create("r1", "", "c1", "playerA", "")
	require.NoError(t, err)
	s.SetAddress("c2", "ignored before join")
	_, err = s.Join("r1", "c2", "playerB", "", "")
	require.NoError(t, err)
	s.SetAddress("c2", "0x8ba1f109551bD432803012645Ac136ddd64DBA72")

	_, over := s.CheckConclusion("r1")
	require.False(t, over)

	playFoolsMate(t, s)

	c, over := s.CheckConclusion("r1")
	require.True(t, over)
	require.True(t, c.First)
	require.Equal(t, "black", c.Winner)
	require.Equal(t, "0x8ba1f109551bD432803012645Ac136ddd64DBA72", c.WinnerAddr)
	require.Equal(t, "c2", c.WinnerConn)

	c, over = s.CheckConclusion("r1")
	require.True(t, over)
	require.False(t, c.First)
}

func TestKeepEmptyRoomsPolicy(t *testing.T) {
	keep := newTestStore(t, true)
	_, err := keep.Create("r1", "", "c1", "playerA", "")
	require.NoError(t, err)
	_, _, ok := keep.Detach("c1")
	require.True(t, ok)
	_, ok = keep.Info("r1")
	require.True(t, ok)

	drop := newTestStore(t, false)
	_, err = drop.Create("r1", "", "c1", "playerA", "")
	require.NoError(t, err)
	_, _, ok = drop.Detach("c1")
	require.True(t, ok)
	_, ok = drop.Info("r1")
	require.False(t, ok)
}

func TestListSortedSummaries(t *testing.T) {
	s := newTestStore(t, true)
	_, err := s.Create("zz", "pw", "c1", "playerA", "")
	require.NoError(t, err)
	_, err = s.Create("aa", "", "c2", "playerB", "")
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	require.Equal(t, "aa", list[0].RoomID)
	require.Equal(t, "zz", list[1].RoomID)
	require.True(t, list[1].HasPassword)
	require.Equal(t, 1, list[0].PlayerCount)
}

func TestMoveTurnWireFormat(t *testing.T) {
	s := newTestStore(t, true)
	_, err := s.Create("r1", "", "c1", "playerA", "")
	require.NoError(t, err)
	_, err = s.Join("r1", "c2", "playerB", "", "")
	require.NoError(t, err)

	res, err := s.Move("r1", "c1", "e2", "e4")
	require.NoError(t, err)
	require.Equal(t, "b", res.Turn)
	require.True(t, strings.HasPrefix(res.FEN, "rnbqkbnr/pppppppp/8/8/4P3/"))

	res, err = s.Move("r1", "c2", "e7", "e5")
	require.NoError(t, err)
	require.Equal(t, "w", res.Turn)
}
