// Tournament state
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

import (
	"sort"
	"time"

	crjm "github.com/atilasos/crjm-server"
)

type Phase string

const (
	Registration Phase = "registration"
	Running      Phase = "running"
	Finished     Phase = "finished"
)

// Tournament holds one bracket for one game.  Players join during
// registration; Start freezes the field and builds the bracket.
type Tournament struct {
	ID     string
	GameID string
	Label  string
	Phase  Phase

	Players map[string]*crjm.Player

	// Winners and losers matches in round order, plus the grand
	// final pair.  The reset is built eagerly and discarded unused.
	WinnersMatches  []*Match
	LosersMatches   []*Match
	GrandFinal      *Match
	GrandFinalReset *Match

	ChampionID string

	Created  time.Time
	Started  time.Time
	Ended    time.Time

	matchIndex map[string]*Match

	// winnersFinalist is the winners-bracket champion entering the
	// grand final; it decides whether a reset is needed.
	winnersFinalist string

	// elimOrder lists eliminated players, earliest first
	elimOrder []string
}

func newTournament(gameID, label string) *Tournament {
	return &Tournament{
		ID:         crjm.NewID(),
		GameID:     gameID,
		Label:      label,
		Phase:      Registration,
		Players:    make(map[string]*crjm.Player),
		Created:    time.Now(),
		matchIndex: make(map[string]*Match),
	}
}

// Match resolves a match ID through the tournament's index
func (t *Tournament) Match(id string) (*Match, bool) {
	m, ok := t.matchIndex[id]
	return m, ok
}

// Matches lists every match: winners rounds, losers rounds, grand
// final, reset.
func (t *Tournament) Matches() []*Match {
	out := make([]*Match, 0, len(t.matchIndex))
	out = append(out, t.WinnersMatches...)
	out = append(out, t.LosersMatches...)
	if t.GrandFinal != nil {
		out = append(out, t.GrandFinal)
	}
	if t.GrandFinalReset != nil {
		out = append(out, t.GrandFinalReset)
	}
	return out
}

// PlayerMatch finds the unfinished match a player is seeded into
func (t *Tournament) PlayerMatch(playerID string) (*Match, bool) {
	for _, m := range t.Matches() {
		if m.Phase != MatchFinished && m.Has(playerID) {
			return m, true
		}
	}
	return nil, false
}

// PlayerName resolves an ID to a display name, tolerating unknowns
func (t *Tournament) PlayerName(playerID string) string {
	if p, ok := t.Players[playerID]; ok {
		return p.Name
	}
	return ""
}

// Standing is one row of the final classification
type Standing struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// Standings ranks the field once a champion is known: champion first,
// then players in reverse elimination order.
func (t *Tournament) Standings() []Standing {
	var out []Standing
	rank := 1
	add := func(id string) {
		out = append(out, Standing{
			Rank:       rank,
			PlayerID:   id,
			PlayerName: t.PlayerName(id),
		})
		rank++
	}
	if t.ChampionID != "" {
		add(t.ChampionID)
	}
	for i := len(t.elimOrder) - 1; i >= 0; i-- {
		add(t.elimOrder[i])
	}
	// Anyone unaccounted for (tournament cut short) trails the list
	ranked := make(map[string]bool, len(out))
	for _, s := range out {
		ranked[s.PlayerID] = true
	}
	var rest []string
	for id := range t.Players {
		if !ranked[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		add(id)
	}
	return out
}

// State is the wire and admin view of a tournament
type State struct {
	ID         string         `json:"id"`
	GameID     string         `json:"gameId"`
	Label      string         `json:"label,omitempty"`
	Phase      Phase          `json:"phase"`
	Players    []*crjm.Player `json:"players"`
	Winners    []*Match       `json:"winnersMatches"`
	Losers     []*Match       `json:"losersMatches"`
	GrandFinal *Match         `json:"grandFinal,omitempty"`
	Reset      *Match         `json:"grandFinalReset,omitempty"`
	ChampionID string         `json:"championId,omitempty"`
}

// State snapshots the tournament for broadcast.  Players are listed
// in stable name order; matches are shared references and must not be
// mutated by readers.
func (t *Tournament) State() State {
	players := make([]*crjm.Player, 0, len(t.Players))
	for _, p := range t.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Name != players[j].Name {
			return players[i].Name < players[j].Name
		}
		return players[i].ID < players[j].ID
	})
	return State{
		ID:         t.ID,
		GameID:     t.GameID,
		Label:      t.Label,
		Phase:      t.Phase,
		Players:    players,
		Winners:    t.WinnersMatches,
		Losers:     t.LosersMatches,
		GrandFinal: t.GrandFinal,
		Reset:      t.GrandFinalReset,
		ChampionID: t.ChampionID,
	}
}
