package game

import (
	"testing"

	crjm "github.com/atilasos/crjm-server"
	"github.com/stretchr/testify/require"
)

func TestQuelhasSegments(t *testing.T) {
	e, _ := ByID("quelhas")
	s := e.Initial(crjm.RoleP1)

	for _, tc := range []struct {
		name  string
		cells []Cell
		ok    bool
	}{
		{"vertical pair", []Cell{{0, 0}, {1, 0}}, true},
		{"vertical run", []Cell{{2, 5}, {3, 5}, {4, 5}}, true},
		{"unsorted vertical", []Cell{{4, 2}, {3, 2}}, true},
		{"horizontal for p1", []Cell{{0, 0}, {0, 1}}, false},
		{"single cell", []Cell{{0, 0}}, false},
		{"gap", []Cell{{0, 0}, {2, 0}}, false},
		{"off board", []Cell{{9, 0}, {10, 0}}, false},
	} {
		err := e.Validate(s, QuelhasMove{Cells: tc.cells}, crjm.RoleP1)
		if tc.ok {
			require.NoError(t, err, tc.name)
		} else {
			require.ErrorIs(t, err, ErrIllegalMove, tc.name)
		}
	}
}

func TestQuelhasSwap(t *testing.T) {
	e, _ := ByID("quelhas")
	s := e.Initial(crjm.RoleP1)

	err := e.Validate(s, QuelhasMove{Swap: true}, crjm.RoleP1)
	require.ErrorIs(t, err, ErrIllegalMove, "p1 may not swap")

	s, err = e.Apply(s, QuelhasMove{Cells: []Cell{{0, 0}, {1, 0}}}, crjm.RoleP1)
	require.NoError(t, err)

	s, err = e.Apply(s, QuelhasMove{Swap: true}, crjm.RoleP2)
	require.NoError(t, err)

	// After the swap p1 plays horizontal segments
	err = e.Validate(s, QuelhasMove{Cells: []Cell{{5, 0}, {6, 0}}}, crjm.RoleP1)
	require.ErrorIs(t, err, ErrIllegalMove)
	require.NoError(t, e.Validate(s,
		QuelhasMove{Cells: []Cell{{5, 0}, {5, 1}}}, crjm.RoleP1))

	// And the swap window has closed for good
	s, err = e.Apply(s, QuelhasMove{Cells: []Cell{{5, 0}, {5, 1}}}, crjm.RoleP1)
	require.NoError(t, err)
	err = e.Validate(s, QuelhasMove{Swap: true}, crjm.RoleP2)
	require.ErrorIs(t, err, ErrIllegalMove)
}

func TestQuelhasStuckPlayerWins(t *testing.T) {
	s := &quelhasState{turn: crjm.RoleP1, moveCount: 10}
	for r := 0; r < quelhasSize; r++ {
		for c := 0; c < quelhasSize; c++ {
			s.board[r][c] = true
		}
	}
	s.board[0][0] = false // a lone cell fits no segment

	require.True(t, s.Terminal())
	require.Equal(t, crjm.P1Wins, s.Winner())
}

func TestQuelhasMoveEnumeration(t *testing.T) {
	e, _ := ByID("quelhas")
	s := e.Initial(crjm.RoleP1)

	// One free column of length 10 gives sum(len 2..10 sub-runs) = 45
	// segments; an empty board has 10 columns plus no swap for p1.
	moves := e.Moves(s, crjm.RoleP1)
	require.Len(t, moves, 45*quelhasSize)

	for _, m := range moves {
		require.NoError(t, e.Validate(s, m, crjm.RoleP1))
	}

	// P2's enumeration on move 2 includes the swap
	s2, err := e.Apply(s, QuelhasMove{Cells: []Cell{{0, 0}, {1, 0}}}, crjm.RoleP1)
	require.NoError(t, err)
	var swaps int
	for _, m := range e.Moves(s2, crjm.RoleP2) {
		if m.(QuelhasMove).Swap {
			swaps++
		}
	}
	require.Equal(t, 1, swaps)
}
