package game

import (
	"testing"

	crjm "github.com/atilasos/crjm-server"
	"github.com/stretchr/testify/require"
)

func TestDominorioOrientations(t *testing.T) {
	e, _ := ByID("dominorio")

	s := e.Initial(crjm.RoleP1)
	err := e.Validate(s, DominorioMove{0, 0, 0, 1}, crjm.RoleP1)
	require.ErrorIs(t, err, ErrIllegalMove, "p1 must play vertical")
	require.NoError(t, e.Validate(s, DominorioMove{0, 0, 1, 0}, crjm.RoleP1))

	s, err = e.Apply(s, DominorioMove{0, 0, 1, 0}, crjm.RoleP1)
	require.NoError(t, err)
	err = e.Validate(s, DominorioMove{2, 0, 3, 0}, crjm.RoleP2)
	require.ErrorIs(t, err, ErrIllegalMove, "p2 must play horizontal")
	require.NoError(t, e.Validate(s, DominorioMove{2, 0, 2, 1}, crjm.RoleP2))
}

func TestDominorioOverlap(t *testing.T) {
	e, _ := ByID("dominorio")
	s := e.Initial(crjm.RoleP1)
	s, err := e.Apply(s, DominorioMove{0, 0, 1, 0}, crjm.RoleP1)
	require.NoError(t, err)

	s, err = e.Apply(s, DominorioMove{5, 5, 5, 6}, crjm.RoleP2)
	require.NoError(t, err)

	err = e.Validate(s, DominorioMove{1, 0, 2, 0}, crjm.RoleP1)
	require.ErrorIs(t, err, ErrIllegalMove)
}

func TestDominorioLastMoverWins(t *testing.T) {
	// Only (0,0) and (0,1) remain: a horizontal slot
	s := &dominorioState{turn: crjm.RoleP1}
	for r := 0; r < dominorioSize; r++ {
		for c := 0; c < dominorioSize; c++ {
			s.board[r][c] = 1
		}
	}
	s.board[0][0] = 0
	s.board[0][1] = 0

	require.True(t, s.Terminal())
	require.Equal(t, crjm.P2Wins, s.Winner())

	s2 := s.Clone().(*dominorioState)
	s2.turn = crjm.RoleP2
	require.False(t, s2.Terminal())
}

func TestDominorioMoveCount(t *testing.T) {
	e, _ := ByID("dominorio")
	s := e.Initial(crjm.RoleP1)
	// 7 placements per column and per row
	require.Len(t, e.Moves(s, crjm.RoleP1), 7*dominorioSize)
	require.Len(t, e.Moves(s, crjm.RoleP2), 7*dominorioSize)
}
