// Double-elimination bracket construction and advancement
//
// Copyright (c) 2024, 2025  Atila Sos
//
// This file is part of crjm-server.
//
// crjm-server is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// crjm-server is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with crjm-server. If not, see
// <http://www.gnu.org/licenses/>

package tourney

import "time"

// nextPow2 returns the smallest power of two >= n, and its exponent
func nextPow2(n int) (b, exp int) {
	b, exp = 1, 0
	for b < n {
		b <<= 1
		exp++
	}
	return b, exp
}

// buildBracket lays out the full double-elimination structure for the
// players in ORDER (already shuffled) and seeds round one.
//
// With B the bracket size and R = log2(B): the winners bracket has R
// rounds of B/2, B/4, ..., 1 matches.  The losers bracket alternates
// drop-in rounds (a loser falls in from the winners round of the same
// depth) with elimination rounds, 2(R-1) rounds in total.  The grand
// final and its contingent reset are built eagerly.
func (t *Tournament) buildBracket(order []string) {
	n := len(order)
	b, r := nextPow2(n)

	// Winners rounds
	winners := make([][]*Match, r+1) // 1-indexed
	for k := 1; k <= r; k++ {
		count := b >> uint(k)
		winners[k] = make([]*Match, count)
		for i := range winners[k] {
			winners[k][i] = newMatch(k, BracketWinners)
		}
	}
	for k := 1; k < r; k++ {
		for i, m := range winners[k] {
			m.AdvanceWinnerTo = winners[k+1][i/2].ID
		}
	}

	t.GrandFinal = newMatch(r+1, BracketWinners)
	t.GrandFinalReset = newMatch(r+2, BracketWinners)
	winners[r][0].AdvanceWinnerTo = t.GrandFinal.ID

	if b == 2 {
		// Two players: the loser of the single winners match goes
		// straight to the grand final.
		winners[1][0].AdvanceLoserTo = t.GrandFinal.ID
	} else {
		t.buildLosersBracket(winners, b, r)
	}

	for k := 1; k <= r; k++ {
		t.WinnersMatches = append(t.WinnersMatches, winners[k]...)
	}

	for _, m := range t.Matches() {
		t.matchIndex[m.ID] = m
	}

	// Seed round one left-to-right
	for i, id := range order {
		winners[1][i/2].assign(id)
	}

	t.resolveByes()
}

// buildLosersBracket wires the losers rounds for b >= 4
func (t *Tournament) buildLosersBracket(winners [][]*Match, b, r int) {
	round := 1

	// Round one pairs the losers of adjacent winners-round-1 matches
	prev := make([]*Match, b/4)
	for i := range prev {
		prev[i] = newMatch(round, BracketLosers)
		winners[1][2*i].AdvanceLoserTo = prev[i].ID
		winners[1][2*i+1].AdvanceLoserTo = prev[i].ID
	}
	t.LosersMatches = append(t.LosersMatches, prev...)
	round++

	for k := 2; k <= r; k++ {
		// Drop-in: survivor i meets the loser of winners[k][i]
		count := b >> uint(k)
		drop := make([]*Match, count)
		for i := range drop {
			drop[i] = newMatch(round, BracketLosers)
			prev[i].AdvanceWinnerTo = drop[i].ID
			winners[k][i].AdvanceLoserTo = drop[i].ID
		}
		t.LosersMatches = append(t.LosersMatches, drop...)
		round++

		if k == r {
			drop[0].AdvanceWinnerTo = t.GrandFinal.ID
			break
		}

		// Elimination: drop-in survivors pair up
		elim := make([]*Match, count/2)
		for i := range elim {
			elim[i] = newMatch(round, BracketLosers)
			drop[2*i].AdvanceWinnerTo = elim[i].ID
			drop[2*i+1].AdvanceWinnerTo = elim[i].ID
		}
		t.LosersMatches = append(t.LosersMatches, elim...)
		prev = elim
		round++
	}
}

// feeders lists the matches that advance somebody into matchID
func (t *Tournament) feeders(matchID string) []*Match {
	var in []*Match
	for _, m := range t.Matches() {
		if m.AdvanceWinnerTo == matchID || m.AdvanceLoserTo == matchID {
			in = append(in, m)
		}
	}
	return in
}

// resolveByes finishes every waiting match that can no longer receive
// two players: all of its feeders are done and fewer than two slots
// are filled.  Run to a fixpoint, because a bye's advancement can
// starve a later match, and re-run after every live match finishes.
// The grand final and reset are exempt; they are always fed properly.
func (t *Tournament) resolveByes() {
	for changed := true; changed; {
		changed = false
		for _, m := range t.Matches() {
			if m.Phase != MatchWaiting || m.Full() {
				continue
			}
			if m == t.GrandFinal || m == t.GrandFinalReset {
				continue
			}
			pending := false
			for _, f := range t.feeders(m.ID) {
				if f.Phase != MatchFinished {
					pending = true
					break
				}
			}
			if pending {
				continue
			}
			m.finishWithBye()
			t.advance(m)
			changed = true
		}
	}
}

// advance propagates a finished match's outcome: winners move along
// their advancement link, loser slots fill or eliminate, and the
// grand-final branch decides the champion or arms the reset.
func (t *Tournament) advance(m *Match) {
	switch {
	case t.GrandFinal != nil && m.ID == t.GrandFinal.ID:
		if m.WinnerID == t.winnersFinalist {
			// The winners-side champion stays unbeaten: no reset
			if t.GrandFinalReset != nil {
				delete(t.matchIndex, t.GrandFinalReset.ID)
				t.GrandFinalReset = nil
			}
			t.eliminate(m.LoserID)
			t.crown(m.WinnerID)
		} else {
			t.GrandFinalReset.P1 = m.P1
			t.GrandFinalReset.P2 = m.P2
		}

	case t.GrandFinalReset != nil && m.ID == t.GrandFinalReset.ID:
		t.eliminate(m.LoserID)
		t.crown(m.WinnerID)

	default:
		if m.WinnerID != "" {
			if m.Bracket == BracketWinners && m.AdvanceWinnerTo == t.GrandFinal.ID {
				t.winnersFinalist = m.WinnerID
			}
			if target, ok := t.matchIndex[m.AdvanceWinnerTo]; ok {
				target.assign(m.WinnerID)
			}
		}
		if m.LoserID != "" {
			if target, ok := t.matchIndex[m.AdvanceLoserTo]; ok {
				target.assign(m.LoserID)
			} else {
				t.eliminate(m.LoserID)
			}
		}
	}
}

func (t *Tournament) eliminate(playerID string) {
	if playerID == "" {
		return
	}
	for _, id := range t.elimOrder {
		if id == playerID {
			return
		}
	}
	t.elimOrder = append(t.elimOrder, playerID)
}

func (t *Tournament) crown(playerID string) {
	t.ChampionID = playerID
	t.Phase = Finished
	t.Ended = time.Now()
}
