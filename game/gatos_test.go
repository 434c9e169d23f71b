package game

import (
	"testing"

	crjm "github.com/atilasos/crjm-server"
	"github.com/stretchr/testify/require"
)

func TestGatosOpeningConstraints(t *testing.T) {
	e, _ := ByID("gatos-caes")

	for _, tc := range []struct {
		name string
		row  int
		col  int
		ok   bool
	}{
		{"first cat outside center", 0, 0, false},
		{"first cat on center edge", 2, 3, false},
		{"first cat central", 3, 3, true},
		{"first cat central corner", 4, 4, true},
	} {
		s := e.Initial(crjm.RoleP1)
		err := e.Validate(s, GatosMove{Row: tc.row, Col: tc.col}, crjm.RoleP1)
		if tc.ok {
			require.NoError(t, err, tc.name)
		} else {
			require.ErrorIs(t, err, ErrIllegalMove, tc.name)
		}
	}
}

func TestGatosFirstDogOutsideCenter(t *testing.T) {
	e, _ := ByID("gatos-caes")
	s := e.Initial(crjm.RoleP1)
	s, err := e.Apply(s, GatosMove{Row: 3, Col: 3}, crjm.RoleP1)
	require.NoError(t, err)

	err = e.Validate(s, GatosMove{Row: 4, Col: 4}, crjm.RoleP2)
	require.ErrorIs(t, err, ErrIllegalMove)

	err = e.Validate(s, GatosMove{Row: 0, Col: 0}, crjm.RoleP2)
	require.NoError(t, err)
}

func TestGatosAdjacencyBan(t *testing.T) {
	e, _ := ByID("gatos-caes")
	s := e.Initial(crjm.RoleP1)
	s, err := e.Apply(s, GatosMove{Row: 3, Col: 3}, crjm.RoleP1)
	require.NoError(t, err)

	// (2,3) touches the cat orthogonally, (2,2) only diagonally
	err = e.Validate(s, GatosMove{Row: 2, Col: 3}, crjm.RoleP2)
	require.ErrorIs(t, err, ErrIllegalMove)

	err = e.Validate(s, GatosMove{Row: 2, Col: 2}, crjm.RoleP2)
	require.NoError(t, err)
}

func TestGatosStuckPlayerLoses(t *testing.T) {
	s := &gatosState{turn: crjm.RoleP2, catPlaced: true, dogPlaced: true}
	s.dogs = gatosCap

	require.True(t, s.Terminal())
	require.Equal(t, crjm.P1Wins, s.Winner())
}

func TestGatosRoundTrip(t *testing.T) {
	e, _ := ByID("gatos-caes")
	s := e.Initial(crjm.RoleP1)
	for _, m := range []struct {
		mv   GatosMove
		role crjm.Role
	}{
		{GatosMove{3, 3}, crjm.RoleP1},
		{GatosMove{0, 0}, crjm.RoleP2},
		{GatosMove{4, 4}, crjm.RoleP1},
	} {
		var err error
		s, err = e.Apply(s, m.mv, m.role)
		require.NoError(t, err)
	}

	raw, err := e.Encode(s)
	require.NoError(t, err)
	restored, err := e.Decode(raw)
	require.NoError(t, err)

	require.Equal(t, s.Turn(), restored.Turn())
	require.Equal(t, len(e.Moves(s, crjm.RoleP2)), len(e.Moves(restored, crjm.RoleP2)))
}
