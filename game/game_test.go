package game

import (
	"errors"
	"testing"

	crjm "github.com/atilasos/crjm-server"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	want := []string{
		"atari-go", "dominorio", "gatos-caes", "nex", "produto", "quelhas",
	}
	require.Equal(t, want, IDs())

	for _, id := range want {
		e, ok := ByID(id)
		require.True(t, ok, id)
		require.Equal(t, id, e.ID())
	}

	_, ok := ByID("chess")
	require.False(t, ok)
}

func TestTurnEnforcement(t *testing.T) {
	for _, id := range IDs() {
		e, _ := ByID(id)
		s := e.Initial(crjm.RoleP1)

		moves := e.Moves(s, crjm.RoleP2)
		require.NotEmpty(t, moves, id)
		err := e.Validate(s, moves[0], crjm.RoleP2)
		require.ErrorIs(t, err, ErrNotYourTurn, id)
	}
}

func TestApplyDoesNotMutate(t *testing.T) {
	e, _ := ByID("gatos-caes")
	s := e.Initial(crjm.RoleP1)

	before, err := e.Encode(s)
	require.NoError(t, err)

	_, err = e.Apply(s, GatosMove{Row: 3, Col: 3}, crjm.RoleP1)
	require.NoError(t, err)

	after, err := e.Encode(s)
	require.NoError(t, err)
	require.JSONEq(t, string(before), string(after))
}

// TestRoundTripEveryGame plays a few plies of every game and checks
// that decoding an encoded position yields the same position: same
// turn, same verdict, same legal moves, same serialization.
func TestRoundTripEveryGame(t *testing.T) {
	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			e, _ := ByID(id)
			s := e.Initial(crjm.RoleP1)
			for ply := 0; ply < 6; ply++ {
				raw, err := e.Encode(s)
				require.NoError(t, err)
				back, err := e.Decode(raw)
				require.NoError(t, err)

				require.Equal(t, s.Turn(), back.Turn())
				require.Equal(t, s.Terminal(), back.Terminal())
				require.Equal(t, s.Winner(), back.Winner())
				again, err := e.Encode(back)
				require.NoError(t, err)
				require.JSONEq(t, string(raw), string(again))
				for _, role := range []crjm.Role{crjm.RoleP1, crjm.RoleP2} {
					require.Len(t, e.Moves(back, role), len(e.Moves(s, role)))
				}

				if s.Terminal() {
					break
				}
				moves := e.Moves(s, s.Turn())
				require.NotEmpty(t, moves)
				s, err = e.Apply(s, moves[0], s.Turn())
				require.NoError(t, err)
			}
		})
	}
}

func TestMovesOnTerminalState(t *testing.T) {
	e, _ := ByID("dominorio")
	s := &dominorioState{turn: crjm.RoleP1}
	for r := 0; r < dominorioSize; r++ {
		for c := 0; c < dominorioSize; c++ {
			s.board[r][c] = 1
		}
	}
	require.True(t, s.Terminal())
	err := e.Validate(s, DominorioMove{0, 0, 1, 0}, crjm.RoleP1)
	require.True(t, errors.Is(err, ErrGameOver))
}
