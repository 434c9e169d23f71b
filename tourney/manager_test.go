package tourney

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinForGameAutoCreates(t *testing.T) {
	mgr := NewManager(1)

	tour, p, err := mgr.JoinForGame("gatos-caes", "Alice", "7A", "")
	require.NoError(t, err)
	require.Equal(t, Registration, tour.Phase)
	require.Equal(t, "Alice", p.Name)
	require.Equal(t, "7A", p.Class)
	require.True(t, p.Online)
	require.False(t, p.IsBot)

	// A second join lands in the same tournament
	tour2, _, err := mgr.JoinForGame("gatos-caes", "Bob", "", "")
	require.NoError(t, err)
	require.Equal(t, tour.ID, tour2.ID)
	require.Len(t, tour.Players, 2)

	// A different game gets its own tournament
	tour3, _, err := mgr.JoinForGame("nex", "Carol", "", "")
	require.NoError(t, err)
	require.NotEqual(t, tour.ID, tour3.ID)

	_, _, err = mgr.JoinForGame("tic-tac-toe", "Dave", "", "")
	require.ErrorIs(t, err, ErrUnknownGame)
}

func TestJoinForGameReconnects(t *testing.T) {
	mgr := NewManager(1)
	tour, p, err := mgr.JoinForGame("quelhas", "Alice", "", "")
	require.NoError(t, err)
	_, _, err = mgr.JoinForGame("quelhas", "Bob", "", "")
	require.NoError(t, err)

	mgr.SetOnline(tour.ID, p.ID, false)
	require.False(t, tour.Players[p.ID].Online)

	require.NoError(t, mgr.Start(tour.ID))

	// Registration is closed, but the existing ID comes back online
	_, again, err := mgr.JoinForGame("quelhas", "Alice", "", p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, again.ID)
	require.True(t, again.Online)

	_, _, err = mgr.JoinForGame("quelhas", "Late", "", "")
	require.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestAddBots(t *testing.T) {
	mgr := NewManager(1)
	tour, err := mgr.Create("produto", "sala 12")
	require.NoError(t, err)

	bots, err := mgr.AddBots(tour.ID, 3)
	require.NoError(t, err)
	require.Len(t, bots, 3)
	for _, b := range bots {
		require.True(t, b.IsBot)
		require.True(t, b.Online)
	}
	require.Len(t, tour.Players, 3)

	require.NoError(t, mgr.Start(tour.ID))
	_, err = mgr.AddBots(tour.ID, 1)
	require.ErrorIs(t, err, ErrRegistrationClosed)

	_, err = mgr.AddBots("nope", 1)
	require.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestStartPreconditions(t *testing.T) {
	mgr := NewManager(1)
	tour, err := mgr.Create("atari-go", "")
	require.NoError(t, err)

	require.ErrorIs(t, mgr.Start(tour.ID), ErrNotEnoughPlayers)

	_, err = mgr.AddBots(tour.ID, 2)
	require.NoError(t, err)
	require.NoError(t, mgr.Start(tour.ID))
	require.Error(t, mgr.Start(tour.ID), "already running")

	// One active tournament per game
	_, err = mgr.Create("atari-go", "")
	require.Error(t, err)
}

func TestFinishForcesPhase(t *testing.T) {
	mgr := NewManager(1)
	tour, err := mgr.Create("nex", "")
	require.NoError(t, err)
	_, err = mgr.AddBots(tour.ID, 2)
	require.NoError(t, err)

	require.NoError(t, mgr.Finish(tour.ID))
	require.Equal(t, Finished, tour.Phase)

	// A new tournament for the game may now be created
	_, err = mgr.Create("nex", "")
	require.NoError(t, err)
}

func TestReadiness(t *testing.T) {
	mgr := NewManager(9)
	tour := startTournament(t, mgr, 2)

	ready := mgr.MatchesReadyToStart(tour.ID)
	require.Len(t, ready, 1)
	m := ready[0]

	can, err := mgr.SetReady(tour.ID, m.ID, m.P1)
	require.NoError(t, err)
	require.False(t, can)

	can, err = mgr.SetReady(tour.ID, m.ID, m.P2)
	require.NoError(t, err)
	require.True(t, can)

	_, err = mgr.SetReady(tour.ID, "missing", m.P1)
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestExportImportRoundTrip(t *testing.T) {
	mgr := NewManager(21)
	tour := startTournament(t, mgr, 4)

	// Play one match so the snapshot carries real progression
	ready := mgr.MatchesReadyToStart(tour.ID)
	require.NotEmpty(t, ready)
	m := ready[0]
	_, err := mgr.StartMatch(tour.ID, m.ID)
	require.NoError(t, err)
	for {
		out, err := mgr.RecordGameResult(tour.ID, m.ID, m.P1)
		require.NoError(t, err)
		if out.MatchFinished {
			break
		}
	}

	data, err := mgr.Export(tour.ID)
	require.NoError(t, err)

	// A live duplicate is rejected; after finishing, import restores
	_, err = mgr.Import(data)
	require.Error(t, err)

	require.NoError(t, mgr.Finish(tour.ID))
	restored, err := mgr.Import(data)
	require.NoError(t, err)

	require.Equal(t, tour.ID, restored.ID)
	require.Equal(t, Running, restored.Phase)
	require.Len(t, restored.Players, 4)
	require.Len(t, restored.WinnersMatches, len(tour.WinnersMatches))
	require.Len(t, restored.LosersMatches, len(tour.LosersMatches))

	rm, ok := restored.Match(m.ID)
	require.True(t, ok)
	require.Equal(t, MatchFinished, rm.Phase)
	require.Equal(t, m.WinnerID, rm.WinnerID)

	// And the restored bracket plays out to a champion
	playOut(t, mgr, restored.ID, func(m *Match) string { return m.P1 })
	require.Equal(t, Finished, restored.Phase)
	require.NotEmpty(t, restored.ChampionID)
}
