// Tournament export and import
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
	"encoding/json"
	"fmt"
	"time"

	crjm "github.com/atilasos/crjm-server"
)

// snapshot is the round-trippable serialization of a tournament.
// Game sessions are deliberately absent: a restored match that was
// mid-play reverts to waiting with a clean score.
type snapshot struct {
	ID              string         `json:"id"`
	GameID          string         `json:"gameId"`
	Label           string         `json:"label,omitempty"`
	Phase           Phase          `json:"phase"`
	Players         []*crjm.Player `json:"players"`
	Winners         []*Match       `json:"winnersMatches"`
	Losers          []*Match       `json:"losersMatches"`
	GrandFinal      *Match         `json:"grandFinal,omitempty"`
	Reset           *Match         `json:"grandFinalReset,omitempty"`
	ChampionID      string         `json:"championId,omitempty"`
	WinnersFinalist string         `json:"winnersFinalist,omitempty"`
	ElimOrder       []string       `json:"elimOrder,omitempty"`
	Created         time.Time      `json:"created"`
	Started         time.Time      `json:"started,omitempty"`
	Ended           time.Time      `json:"ended,omitempty"`
}

// Export serializes a tournament, players map included
func (mgr *Manager) Export(tournamentID string) ([]byte, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	t, ok := mgr.tournaments[tournamentID]
	if !ok {
		return nil, ErrTournamentNotFound
	}

	snap := snapshot{
		ID:              t.ID,
		GameID:          t.GameID,
		Label:           t.Label,
		Phase:           t.Phase,
		Winners:         t.WinnersMatches,
		Losers:          t.LosersMatches,
		GrandFinal:      t.GrandFinal,
		Reset:           t.GrandFinalReset,
		ChampionID:      t.ChampionID,
		WinnersFinalist: t.winnersFinalist,
		ElimOrder:       t.elimOrder,
		Created:         t.Created,
		Started:         t.Started,
		Ended:           t.Ended,
	}
	for _, p := range t.Players {
		snap.Players = append(snap.Players, p)
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Import restores an exported tournament under its original ID.  A
// clash with a live tournament is rejected; an imported copy replaces
// a finished one.
func (mgr *Manager) Import(data []byte) (*Tournament, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding tournament snapshot: %w", err)
	}
	if snap.ID == "" || snap.GameID == "" {
		return nil, fmt.Errorf("tournament snapshot lacks id or gameId")
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if old, ok := mgr.tournaments[snap.ID]; ok && old.Phase != Finished {
		return nil, fmt.Errorf("tournament %s is still active", snap.ID)
	}
	if snap.Phase != Finished {
		if t := mgr.activeForGame(snap.GameID); t != nil && t.ID != snap.ID {
			return nil, fmt.Errorf("game %s already has tournament %s",
				snap.GameID, t.ID)
		}
	}

	t := &Tournament{
		ID:              snap.ID,
		GameID:          snap.GameID,
		Label:           snap.Label,
		Phase:           snap.Phase,
		Players:         make(map[string]*crjm.Player, len(snap.Players)),
		WinnersMatches:  snap.Winners,
		LosersMatches:   snap.Losers,
		GrandFinal:      snap.GrandFinal,
		GrandFinalReset: snap.Reset,
		ChampionID:      snap.ChampionID,
		Created:         snap.Created,
		Started:         snap.Started,
		Ended:           snap.Ended,
		matchIndex:      make(map[string]*Match),
		winnersFinalist: snap.WinnersFinalist,
		elimOrder:       snap.ElimOrder,
	}
	for _, p := range snap.Players {
		t.Players[p.ID] = p
	}
	for _, m := range t.Matches() {
		// Sessions do not survive the round trip, so an in-flight
		// match restarts from game one.
		if m.Phase == MatchPlaying {
			m.Phase = MatchWaiting
			m.Score = Score{}
			m.CurrentGame = 0
			m.ReadyP1, m.ReadyP2 = false, false
		}
		t.matchIndex[m.ID] = m
	}

	mgr.tournaments[t.ID] = t
	return t, nil
}
