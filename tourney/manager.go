// Tournament manager
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
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	crjm "github.com/atilasos/crjm-server"
	"github.com/atilasos/crjm-server/game"
)

var (
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrRegistrationClosed  = errors.New("registration is closed")
	ErrNotEnoughPlayers    = errors.New("at least two players required")
	ErrUnknownGame         = errors.New("unknown game")
	ErrTournamentNotActive = errors.New("tournament is not running")
)

// Manager owns every tournament in the process.  All mutation goes
// through its lock; each game has at most one active tournament at a
// time.
type Manager struct {
	mu          sync.Mutex
	rng         *rand.Rand
	tournaments map[string]*Tournament
}

func NewManager(seed int64) *Manager {
	return &Manager{
		rng:         rand.New(rand.NewSource(seed)),
		tournaments: make(map[string]*Tournament),
	}
}

// Create opens a fresh tournament in registration.  Fails if the game
// is unknown or already has an active tournament.
func (mgr *Manager) Create(gameID, label string) (*Tournament, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.create(gameID, label)
}

func (mgr *Manager) create(gameID, label string) (*Tournament, error) {
	if _, ok := game.ByID(gameID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	if t := mgr.activeForGame(gameID); t != nil {
		return nil, fmt.Errorf("game %s already has tournament %s", gameID, t.ID)
	}
	t := newTournament(gameID, label)
	mgr.tournaments[t.ID] = t
	return t, nil
}

func (mgr *Manager) activeForGame(gameID string) *Tournament {
	for _, t := range mgr.tournaments {
		if t.GameID == gameID && t.Phase != Finished {
			return t
		}
	}
	return nil
}

// Get looks a tournament up by ID
func (mgr *Manager) Get(id string) (*Tournament, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	t, ok := mgr.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return t, nil
}

// List snapshots every known tournament, newest first
func (mgr *Manager) List() []State {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	all := make([]*Tournament, 0, len(mgr.tournaments))
	for _, t := range mgr.tournaments {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Created.After(all[j].Created)
	})
	out := make([]State, len(all))
	for i, t := range all {
		out[i] = t.State()
	}
	return out
}

// JoinForGame finds or creates the active tournament for GAMEID and
// registers the player: a matching existingID reconnects, otherwise a
// fresh player joins if registration is still open.
func (mgr *Manager) JoinForGame(gameID, name, class, existingID string) (*Tournament, *crjm.Player, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	t := mgr.activeForGame(gameID)
	if t == nil {
		var err error
		if t, err = mgr.create(gameID, ""); err != nil {
			return nil, nil, err
		}
	}

	if p, ok := t.Players[existingID]; ok {
		p.Online = true
		return t, p, nil
	}
	if t.Phase != Registration {
		return nil, nil, ErrRegistrationClosed
	}
	p := &crjm.Player{
		ID:     crjm.NewID(),
		Name:   name,
		Class:  class,
		Online: true,
	}
	t.Players[p.ID] = p
	return t, p, nil
}

// AddBots registers N synthetic players; only valid in registration
func (mgr *Manager) AddBots(tournamentID string, n int) ([]*crjm.Player, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	t, ok := mgr.tournaments[tournamentID]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	if t.Phase != Registration {
		return nil, ErrRegistrationClosed
	}
	bots := make([]*crjm.Player, 0, n)
	for i := 0; i < n; i++ {
		p := &crjm.Player{
			ID:     crjm.NewID(),
			Name:   fmt.Sprintf("Bot %d", len(t.Players)+1),
			Online: true,
			IsBot:  true,
		}
		t.Players[p.ID] = p
		bots = append(bots, p)
	}
	return bots, nil
}

// Start freezes registration, shuffles the field and builds the
// bracket
func (mgr *Manager) Start(tournamentID string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	t, ok := mgr.tournaments[tournamentID]
	if !ok {
		return ErrTournamentNotFound
	}
	if t.Phase != Registration {
		return fmt.Errorf("tournament %s is %s", t.ID, t.Phase)
	}
	if len(t.Players) < 2 {
		return ErrNotEnoughPlayers
	}

	order := make([]string, 0, len(t.Players))
	for id := range t.Players {
		order = append(order, id)
	}
	sort.Strings(order) // deterministic base before the shuffle
	mgr.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	t.Phase = Running
	t.Started = time.Now()
	t.buildBracket(order)
	return nil
}

// Finish forces a tournament closed without crowning anybody new
func (mgr *Manager) Finish(tournamentID string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	t, ok := mgr.tournaments[tournamentID]
	if !ok {
		return ErrTournamentNotFound
	}
	if t.Phase != Finished {
		t.Phase = Finished
		t.Ended = time.Now()
	}
	return nil
}

// SetOnline toggles a player's presence flag; it never forfeits
func (mgr *Manager) SetOnline(tournamentID, playerID string, online bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if t, ok := mgr.tournaments[tournamentID]; ok {
		if p, ok := t.Players[playerID]; ok {
			p.Online = online
		}
	}
}

// MatchesReadyToStart lists waiting matches with both slots filled
func (mgr *Manager) MatchesReadyToStart(tournamentID string) []*Match {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	t, ok := mgr.tournaments[tournamentID]
	if !ok {
		return nil
	}
	var out []*Match
	for _, m := range t.Matches() {
		if m.Phase == MatchWaiting && m.Full() {
			out = append(out, m)
		}
	}
	return out
}

// SetReady records a player's readiness and reports whether the match
// can now start
func (mgr *Manager) SetReady(tournamentID, matchID, playerID string) (bool, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	t, ok := mgr.tournaments[tournamentID]
	if !ok {
		return false, ErrTournamentNotFound
	}
	m, ok := t.Match(matchID)
	if !ok {
		return false, ErrMatchNotFound
	}
	m.SetReady(playerID)
	return m.Phase == MatchWaiting && m.Full() && m.BothReady(), nil
}

// StartMatch transitions a waiting match into play
func (mgr *Manager) StartMatch(tournamentID, matchID string) (*Match, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	t, ok := mgr.tournaments[tournamentID]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	if t.Phase != Running {
		return nil, ErrTournamentNotActive
	}
	m, ok := t.Match(matchID)
	if !ok {
		return nil, ErrMatchNotFound
	}
	if err := m.Start(); err != nil {
		return nil, err
	}
	return m, nil
}

// MatchOutcome reports what a finished game did to the bracket
type MatchOutcome struct {
	MatchFinished      bool
	TournamentFinished bool
	// NextMatchID is where the match winner plays next, if anywhere
	NextMatchID string
}

// RecordGameResult closes the current game of a match (empty winner =
// draw) and, when that finishes the match, runs the advancement
// pipeline: winner and loser propagate, starved matches resolve as
// byes, the grand-final branch may crown a champion.
func (mgr *Manager) RecordGameResult(tournamentID, matchID, winnerID string) (MatchOutcome, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	t, ok := mgr.tournaments[tournamentID]
	if !ok {
		return MatchOutcome{}, ErrTournamentNotFound
	}
	m, ok := t.Match(matchID)
	if !ok {
		return MatchOutcome{}, ErrMatchNotFound
	}

	finished, err := m.RecordGameResult(winnerID)
	if err != nil || !finished {
		return MatchOutcome{}, err
	}

	t.advance(m)
	t.resolveByes()

	out := MatchOutcome{
		MatchFinished:      true,
		TournamentFinished: t.Phase == Finished,
	}
	if next, ok := t.PlayerMatch(m.WinnerID); ok {
		out.NextMatchID = next.ID
	}
	return out, nil
}
