package tourney

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// register n players and start the tournament
func startTournament(t *testing.T, mgr *Manager, n int) *Tournament {
	t.Helper()
	tour, p, err := mgr.JoinForGame("dominorio", "Player 1", "", "")
	require.NoError(t, err)
	require.NotNil(t, p)
	for i := 2; i <= n; i++ {
		_, _, err := mgr.JoinForGame("dominorio", fmt.Sprintf("Player %d", i), "", "")
		require.NoError(t, err)
	}
	require.NoError(t, mgr.Start(tour.ID))
	return tour
}

// playOut runs every startable match to completion, letting
// pickWinner choose each match's winner, until nothing is ready.
func playOut(t *testing.T, mgr *Manager, tid string, pickWinner func(*Match) string) {
	t.Helper()
	for guard := 0; guard < 64; guard++ {
		ready := mgr.MatchesReadyToStart(tid)
		if len(ready) == 0 {
			return
		}
		m := ready[0]
		_, err := mgr.StartMatch(tid, m.ID)
		require.NoError(t, err)
		w := pickWinner(m)
		for {
			out, err := mgr.RecordGameResult(tid, m.ID, w)
			require.NoError(t, err)
			if out.MatchFinished {
				break
			}
		}
	}
	t.Fatal("tournament did not converge")
}

func TestBracketShape(t *testing.T) {
	for _, tc := range []struct {
		n, b, winners, losers int
	}{
		{2, 2, 1, 0},
		{3, 4, 3, 2},
		{4, 4, 3, 2},
		{5, 8, 7, 6},
		{7, 8, 7, 6},
		{8, 8, 7, 6},
	} {
		mgr := NewManager(1)
		tour := startTournament(t, mgr, tc.n)

		require.Equal(t, Running, tour.Phase)
		require.Len(t, tour.WinnersMatches, tc.winners, "n=%d", tc.n)
		require.Len(t, tour.LosersMatches, tc.losers, "n=%d", tc.n)
		require.NotNil(t, tour.GrandFinal)
		require.NotNil(t, tour.GrandFinalReset)

		// Every advancement link resolves through the match index
		for _, m := range tour.Matches() {
			for _, link := range []string{m.AdvanceWinnerTo, m.AdvanceLoserTo} {
				if link == "" {
					continue
				}
				_, ok := tour.Match(link)
				require.True(t, ok, "dangling link in n=%d", tc.n)
			}
		}
	}
}

func TestBracketByes(t *testing.T) {
	mgr := NewManager(3)
	tour := startTournament(t, mgr, 3)

	// With three players one round-1 match is a bye: finished, winner
	// set, no loser recorded.
	var byes, live int
	for _, m := range tour.WinnersMatches {
		if m.Round != 1 {
			continue
		}
		if m.Phase == MatchFinished {
			byes++
			require.NotEmpty(t, m.WinnerID)
			require.Empty(t, m.LoserID)
		} else {
			live = live + 1
			require.True(t, m.Full())
		}
	}
	require.Equal(t, 1, byes)
	require.Equal(t, 1, live)

	// The bye winner is already seeded into the winners final
	final := tour.WinnersMatches[len(tour.WinnersMatches)-1]
	require.Equal(t, 1, final.filled())
}

func TestAdvancementCompleteness(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 8} {
		mgr := NewManager(int64(n))
		tour := startTournament(t, mgr, n)

		played := 0
		playOut(t, mgr, tour.ID, func(m *Match) string {
			played++
			return m.P1
		})

		require.Equal(t, Finished, tour.Phase, "n=%d", n)
		require.NotEmpty(t, tour.ChampionID, "n=%d", n)
		// At most 2n-2 matches plus one reset actually get played
		require.LessOrEqual(t, played, 2*n-1, "n=%d", n)

		// Every finished match's winner went somewhere or won it all
		for _, m := range tour.Matches() {
			if m.Phase != MatchFinished || m.WinnerID == "" {
				continue
			}
			if m.AdvanceWinnerTo == "" {
				continue
			}
			if tour.GrandFinalReset != nil && m.ID == tour.GrandFinal.ID {
				continue
			}
			next, ok := tour.Match(m.AdvanceWinnerTo)
			if ok {
				require.True(t, next.Has(m.WinnerID), "n=%d", n)
			}
		}

		standings := tour.Standings()
		require.Len(t, standings, n, "n=%d", n)
		require.Equal(t, tour.ChampionID, standings[0].PlayerID)
		require.Equal(t, 1, standings[0].Rank)
	}
}

func TestGrandFinalWinnersSideWins(t *testing.T) {
	mgr := NewManager(11)
	tour := startTournament(t, mgr, 4)

	playOut(t, mgr, tour.ID, func(m *Match) string {
		if m.ID == tour.GrandFinal.ID {
			return tour.winnersFinalist
		}
		return m.P1
	})

	require.Equal(t, Finished, tour.Phase)
	require.Equal(t, tour.GrandFinal.WinnerID, tour.ChampionID)
	require.Nil(t, tour.GrandFinalReset, "reset is discarded")
}

func TestGrandFinalResetBranch(t *testing.T) {
	mgr := NewManager(12)
	tour := startTournament(t, mgr, 4)

	playOut(t, mgr, tour.ID, func(m *Match) string {
		if m.ID == tour.GrandFinal.ID {
			// Losers-side champion wins game one of the final
			if m.P1 == tour.winnersFinalist {
				return m.P2
			}
			return m.P1
		}
		return m.P1
	})

	require.Equal(t, Finished, tour.Phase)
	require.NotNil(t, tour.GrandFinalReset)
	require.Equal(t, MatchFinished, tour.GrandFinalReset.Phase)
	require.Equal(t, tour.GrandFinalReset.WinnerID, tour.ChampionID)

	// The reset re-matched the grand final pair
	require.ElementsMatch(t,
		[]string{tour.GrandFinal.P1, tour.GrandFinal.P2},
		[]string{tour.GrandFinalReset.P1, tour.GrandFinalReset.P2})
}

func TestBracketTwoPlayers(t *testing.T) {
	mgr := NewManager(5)
	tour := startTournament(t, mgr, 2)

	wr := tour.WinnersMatches[0]
	require.Equal(t, tour.GrandFinal.ID, wr.AdvanceWinnerTo)
	require.Equal(t, tour.GrandFinal.ID, wr.AdvanceLoserTo)

	playOut(t, mgr, tour.ID, func(m *Match) string { return m.P1 })
	require.Equal(t, Finished, tour.Phase)
	require.NotEmpty(t, tour.ChampionID)
}
