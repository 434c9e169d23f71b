package bot

import (
	"testing"

	crjm "github.com/atilasos/crjm-server"
	"github.com/atilasos/crjm-server/game"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("basic")
	require.NoError(t, err)
	require.Equal(t, Basic, l)

	l, err = ParseLevel("advanced")
	require.NoError(t, err)
	require.Equal(t, Advanced, l)

	_, err = ParseLevel("grandmaster")
	require.Error(t, err)
}

// Both levels must produce legal moves in every game, from the
// opening through the midgame.
func TestChooseIsLegal(t *testing.T) {
	for _, level := range []Level{Basic, Advanced} {
		for _, id := range game.IDs() {
			e, ok := game.ByID(id)
			require.True(t, ok)

			p := New(level, 7)
			s := e.Initial(crjm.RoleP1)
			role := crjm.RoleP1
			for i := 0; i < 12 && !s.Terminal(); i++ {
				m, err := p.Choose(e, s, role)
				require.NoError(t, err, "%s/%s move %d", level, id, i)
				require.NoError(t, e.Validate(s, m, role),
					"%s/%s move %d", level, id, i)
				s, err = e.Apply(s, m, role)
				require.NoError(t, err)
				role = role.Other()
			}
		}
	}
}

// Oversized enumerations are cut to a hundred candidates before the
// evaluator runs
func TestSampleBound(t *testing.T) {
	p := New(Advanced, 1)

	small := make([]game.Move, 40)
	require.Len(t, p.sample(small), 40)

	big := make([]game.Move, 500)
	require.Len(t, p.sample(big), maxCandidates)
	require.Equal(t, 100, maxCandidates)
}

func TestSeededRunsAgree(t *testing.T) {
	e, _ := game.ByID("gatos-caes")

	play := func(seed int64) []game.Move {
		p := New(Basic, seed)
		s := e.Initial(crjm.RoleP1)
		role := crjm.RoleP1
		var moves []game.Move
		for i := 0; i < 10 && !s.Terminal(); i++ {
			m, err := p.Choose(e, s, role)
			require.NoError(t, err)
			moves = append(moves, m)
			s, err = e.Apply(s, m, role)
			require.NoError(t, err)
			role = role.Other()
		}
		return moves
	}

	require.Equal(t, play(42), play(42))
	require.NotEqual(t, play(42), play(43))
}

// Passing is a legal Atari Go move, but an advanced bot must not
// prefer it over quiet development
func TestAdvancedDoesNotPassIdly(t *testing.T) {
	e, _ := game.ByID("atari-go")
	p := New(Advanced, 1)

	s := e.Initial(crjm.RoleP1)
	role := crjm.RoleP1
	for i := 0; i < 6; i++ {
		m, err := p.Choose(e, s, role)
		require.NoError(t, err)
		require.False(t, m.(game.AtariMove).Pass, "move %d", i)
		s, err = e.Apply(s, m, role)
		require.NoError(t, err)
		if s.Terminal() {
			break
		}
		role = role.Other()
	}
}

// An advanced bot never passes up an immediate win
func TestAdvancedTakesTheCapture(t *testing.T) {
	e, _ := game.ByID("atari-go")

	// White at (0,0) hangs on one liberty; black to move
	raw := []byte(`{
		"board": [
			[2,1,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0,0]
		],
		"turn": "p1", "passes": 0,
		"blackCaptures": 0, "whiteCaptures": 0
	}`)
	s, err := e.Decode(raw)
	require.NoError(t, err)

	p := New(Advanced, 1)
	m, err := p.Choose(e, s, crjm.RoleP1)
	require.NoError(t, err)
	require.Equal(t, game.AtariMove{Row: 1, Col: 0}, m)

	next, err := e.Apply(s, m, crjm.RoleP1)
	require.NoError(t, err)
	require.Equal(t, crjm.P1Wins, next.Winner())
}
