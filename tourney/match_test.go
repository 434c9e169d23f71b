package tourney

import (
	"testing"

	crjm "github.com/atilasos/crjm-server"
	"github.com/atilasos/crjm-server/game"
	"github.com/stretchr/testify/require"
)

func TestMatchStartRequiresTwoPlayers(t *testing.T) {
	m := newMatch(1, BracketWinners)
	require.ErrorIs(t, m.Start(), ErrMatchIncomplete)

	m.assign("a")
	require.ErrorIs(t, m.Start(), ErrMatchIncomplete)

	m.assign("b")
	require.NoError(t, m.Start())
	require.Equal(t, MatchPlaying, m.Phase)
	require.Equal(t, 1, m.CurrentGame)
	require.Equal(t, crjm.RoleP1, m.StartingRole)

	require.ErrorIs(t, m.Start(), ErrMatchNotWaiting)
}

func TestMatchAssignLeftToRight(t *testing.T) {
	m := newMatch(1, BracketWinners)
	m.assign("a")
	m.assign("b")
	m.assign("c") // no third slot
	require.Equal(t, "a", m.P1)
	require.Equal(t, "b", m.P2)
	require.Equal(t, crjm.RoleP1, m.RoleOf("a"))
	require.Equal(t, crjm.RoleP2, m.RoleOf("b"))
	require.Equal(t, crjm.RoleNone, m.RoleOf("c"))
}

func TestMatchBestOfThree(t *testing.T) {
	m := newMatch(1, BracketWinners)
	m.assign("a")
	m.assign("b")
	require.NoError(t, m.Start())

	fin, err := m.RecordGameResult("a")
	require.NoError(t, err)
	require.False(t, fin)
	require.Equal(t, 2, m.CurrentGame)
	require.Equal(t, crjm.RoleP2, m.StartingRole)

	fin, err = m.RecordGameResult("b")
	require.NoError(t, err)
	require.False(t, fin)
	require.Equal(t, 3, m.CurrentGame)
	require.Equal(t, crjm.RoleP1, m.StartingRole)

	fin, err = m.RecordGameResult("a")
	require.NoError(t, err)
	require.True(t, fin)
	require.Equal(t, MatchFinished, m.Phase)
	require.Equal(t, "a", m.WinnerID)
	require.Equal(t, "b", m.LoserID)
	require.Equal(t, Score{P1Wins: 2, P2Wins: 1}, m.Score)

	_, err = m.RecordGameResult("a")
	require.ErrorIs(t, err, ErrMatchNotPlaying)
}

// Draws consume game numbers without scoring; the match keeps going
// past game three until somebody wins twice.
func TestMatchDrawsExtendTheMatch(t *testing.T) {
	m := newMatch(1, BracketWinners)
	m.assign("a")
	m.assign("b")
	require.NoError(t, m.Start())

	fin, err := m.RecordGameResult("") // draw
	require.NoError(t, err)
	require.False(t, fin)
	require.Equal(t, Score{}, m.Score)
	require.Equal(t, 2, m.CurrentGame)

	fin, err = m.RecordGameResult("a")
	require.NoError(t, err)
	require.False(t, fin)

	fin, err = m.RecordGameResult("") // another draw, game 4 happens
	require.NoError(t, err)
	require.False(t, fin)
	require.Equal(t, 4, m.CurrentGame)
	require.Equal(t, crjm.RoleP2, m.StartingRole)

	fin, err = m.RecordGameResult("a")
	require.NoError(t, err)
	require.True(t, fin)
	require.Equal(t, "a", m.WinnerID)
}

func TestSessionLifecycle(t *testing.T) {
	s, err := NewSession("t1", "m1", 1, "dominorio", crjm.RoleP1)
	require.NoError(t, err)
	require.Equal(t, crjm.RoleP1, s.Turn())
	require.False(t, s.Finished())

	// Out-of-turn and illegal moves leave the session untouched
	_, err = s.SubmitMove("b", crjm.RoleP2, game.DominorioMove{Row1: 0, Col1: 0, Row2: 0, Col2: 1})
	require.ErrorIs(t, err, game.ErrNotYourTurn)
	_, err = s.SubmitMove("a", crjm.RoleP1, game.DominorioMove{Row1: 0, Col1: 0, Row2: 0, Col2: 1})
	require.ErrorIs(t, err, game.ErrIllegalMove)
	require.Equal(t, 0, s.MoveCount())

	res, err := s.SubmitMove("a", crjm.RoleP1, game.DominorioMove{Row1: 0, Col1: 0, Row2: 1, Col2: 0})
	require.NoError(t, err)
	require.False(t, res.GameOver)
	require.Equal(t, crjm.RoleP2, s.Turn())
	require.Equal(t, 1, s.MoveCount())

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.NotEmpty(t, snap)

	_, err = NewSession("t1", "m1", 1, "no-such-game", crjm.RoleP1)
	require.Error(t, err)
}

func TestSessionManagerOnePerMatch(t *testing.T) {
	sm := NewSessionManager()
	s1, err := sm.Open("t1", "m1", 1, "gatos-caes", crjm.RoleP1)
	require.NoError(t, err)

	_, err = sm.Open("t1", "m1", 2, "gatos-caes", crjm.RoleP2)
	require.Error(t, err, "a second live session on the same match")

	got, ok := sm.Get("m1")
	require.True(t, ok)
	require.Same(t, s1, got)

	sm.Close("m1")
	_, ok = sm.Get("m1")
	require.False(t, ok)

	_, err = sm.Open("t1", "m1", 2, "gatos-caes", crjm.RoleP2)
	require.NoError(t, err)
}
