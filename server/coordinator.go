// Session coordinator
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

// Package server dispatches client commands into the tournament
// layer, drives bot players, and fans state updates back out to the
// connected peers.  One lock serializes all tournament mutation;
// outbound frames leave through buffered per-connection channels, so
// broadcasting never blocks on a slow peer.
package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	crjm "github.com/atilasos/crjm-server"
	"github.com/atilasos/crjm-server/bot"
	"github.com/atilasos/crjm-server/db"
	"github.com/atilasos/crjm-server/tourney"
)

// Conn binds a peer to the player it authenticated as.  Both binding
// fields are guarded by the coordinator's lock.
type Conn struct {
	p            peer
	playerID     string
	tournamentID string
}

// Options configures a Coordinator
type Options struct {
	Logger  zerolog.Logger
	Manager *tourney.Manager
	Policy  *bot.Policy
	Archive *db.DB // nil disables archiving

	BotDelay       time.Duration
	InterGamePause time.Duration
	AutoReady      bool
	MoveCap        int
}

type Coordinator struct {
	mu       sync.Mutex
	log      zerolog.Logger
	mgr      *tourney.Manager
	sessions *tourney.SessionManager
	policy   *bot.Policy
	archive  *db.DB

	botDelay       time.Duration
	interGamePause time.Duration
	autoReady      bool
	moveCap        int

	conns     map[*Conn]struct{}
	byPlayer  map[string]*Conn
	announced map[string]bool // match IDs already assigned to players
}

func NewCoordinator(o Options) *Coordinator {
	if o.Manager == nil {
		o.Manager = tourney.NewManager(time.Now().UnixNano())
	}
	if o.Policy == nil {
		o.Policy = bot.New(bot.Advanced, time.Now().UnixNano())
	}
	if o.MoveCap <= 0 {
		o.MoveCap = 1000
	}
	return &Coordinator{
		log:            o.Logger,
		mgr:            o.Manager,
		sessions:       tourney.NewSessionManager(),
		policy:         o.Policy,
		archive:        o.Archive,
		botDelay:       o.BotDelay,
		interGamePause: o.InterGamePause,
		autoReady:      o.AutoReady,
		moveCap:        o.MoveCap,
		conns:          make(map[*Conn]struct{}),
		byPlayer:       make(map[string]*Conn),
		announced:      make(map[string]bool),
	}
}

// Attach registers a fresh, unauthenticated connection
func (co *Coordinator) Attach(p peer) *Conn {
	co.mu.Lock()
	defer co.mu.Unlock()
	c := &Conn{p: p}
	co.conns[c] = struct{}{}
	return c
}

// Disconnect marks the bound player offline.  Nothing is forfeited:
// the player can reconnect with their ID and pick up where they were.
func (co *Coordinator) Disconnect(c *Conn) {
	co.mu.Lock()
	defer co.mu.Unlock()
	delete(co.conns, c)
	if c.playerID == "" {
		return
	}
	if co.byPlayer[c.playerID] == c {
		delete(co.byPlayer, c.playerID)
	}
	co.mgr.SetOnline(c.tournamentID, c.playerID, false)
	if t, err := co.mgr.Get(c.tournamentID); err == nil {
		co.broadcast(t, tournamentState(t))
	}
}

// Dispatch routes one inbound frame
func (co *Coordinator) Dispatch(c *Conn, f clientFrame) {
	co.mu.Lock()
	defer co.mu.Unlock()

	switch f.Type {
	case "join_tournament":
		if f.GameID == "" || (f.PlayerName == "" && f.PlayerID == "") {
			c.p.deliver(protoError(crjm.ErrParse, "join_tournament needs gameId and playerName"))
			return
		}
		co.join(c, f)
	case "ready_for_match":
		if f.MatchID == "" {
			c.p.deliver(protoError(crjm.ErrParse, "ready_for_match needs matchId"))
			return
		}
		co.ready(c, f.MatchID)
	case "submit_move":
		if f.MatchID == "" || len(f.Move) == 0 {
			c.p.deliver(protoError(crjm.ErrParse, "submit_move needs matchId and move"))
			return
		}
		co.submitMove(c, f)
	case "leave_tournament":
		co.leave(c)
	default:
		c.p.deliver(protoError(crjm.ErrUnknownMessage, "unknown message type "+f.Type))
	}
}

func (co *Coordinator) join(c *Conn, f clientFrame) {
	t, p, err := co.mgr.JoinForGame(f.GameID, f.PlayerName, f.ClassID, f.PlayerID)
	if err != nil {
		c.p.deliver(protoError(crjm.ErrJoinFailed, err.Error()))
		return
	}
	reconnected := f.PlayerID == p.ID

	c.playerID, c.tournamentID = p.ID, t.ID
	co.byPlayer[p.ID] = c

	co.log.Info().Str("player", p.Name).Str("game", t.GameID).
		Bool("reconnected", reconnected).Msg("Player joined")

	c.p.deliver(welcome(p, t, reconnected))
	co.broadcast(t, tournamentState(t))

	if !reconnected {
		return
	}
	// Bring a returning player back up to speed on their match
	m, ok := t.PlayerMatch(p.ID)
	if !ok {
		return
	}
	switch m.Phase {
	case tourney.MatchWaiting:
		if m.Full() {
			c.p.deliver(co.assignedFrame(t, m, p.ID))
		}
	case tourney.MatchPlaying:
		if sess, ok := co.sessions.Get(m.ID); ok && !sess.Finished() {
			c.p.deliver(co.gameStartFrame(t, m, sess, p.ID))
			c.p.deliver(co.gameStateFrame(m, sess, p.ID, nil, ""))
		}
	}
}

func (co *Coordinator) leave(c *Conn) {
	if c.playerID == "" {
		c.p.deliver(protoError(crjm.ErrNotInTournament, "join a tournament first"))
		return
	}
	co.mgr.SetOnline(c.tournamentID, c.playerID, false)
	t, err := co.mgr.Get(c.tournamentID)
	delete(co.byPlayer, c.playerID)
	c.playerID, c.tournamentID = "", ""
	if err == nil {
		co.broadcast(t, tournamentState(t))
	}
}

// resolve maps a connection to its tournament and the match it refers
// to, emitting the appropriate error frame on failure.
func (co *Coordinator) resolve(c *Conn, matchID string) (*tourney.Tournament, *tourney.Match, bool) {
	if c.playerID == "" {
		c.p.deliver(protoError(crjm.ErrNotInTournament, "join a tournament first"))
		return nil, nil, false
	}
	t, err := co.mgr.Get(c.tournamentID)
	if err != nil {
		c.p.deliver(protoError(crjm.ErrNotInTournament, "tournament is gone"))
		return nil, nil, false
	}
	m, ok := t.Match(matchID)
	if !ok {
		c.p.deliver(protoError(crjm.ErrMatchNotFound, "no such match"))
		return nil, nil, false
	}
	if !m.Has(c.playerID) {
		c.p.deliver(protoError(crjm.ErrNotInMatch, "you are not part of this match"))
		return nil, nil, false
	}
	return t, m, true
}

func (co *Coordinator) ready(c *Conn, matchID string) {
	t, m, ok := co.resolve(c, matchID)
	if !ok {
		return
	}
	if m.Phase != tourney.MatchWaiting {
		c.p.deliver(info("match has already started"))
		return
	}
	can, err := co.mgr.SetReady(t.ID, m.ID, c.playerID)
	if err != nil {
		c.p.deliver(protoError(crjm.ErrMatchNotFound, err.Error()))
		return
	}
	if can {
		co.startMatch(t, m)
	}
}

func (co *Coordinator) submitMove(c *Conn, f clientFrame) {
	t, m, ok := co.resolve(c, f.MatchID)
	if !ok {
		return
	}
	sess, ok := co.sessions.Get(m.ID)
	if !ok || sess.Finished() || m.Phase != tourney.MatchPlaying {
		c.p.deliver(protoError(crjm.ErrNoActiveGame, "no game is being played"))
		return
	}
	if f.GameNumber != 0 && f.GameNumber != sess.GameNumber {
		c.p.deliver(protoError(crjm.ErrNoActiveGame, "that game is over"))
		return
	}

	mv, err := sess.Engine().ParseMove(f.Move)
	if err != nil {
		c.p.deliver(protoError(crjm.ErrParse, "unreadable move payload"))
		return
	}
	res, err := sess.SubmitMove(c.playerID, m.RoleOf(c.playerID), mv)
	if err != nil {
		c.p.deliver(protoError(crjm.ErrInvalidMove, err.Error()))
		return
	}
	co.afterMove(t, m, sess, f.Move, c.playerID, res)
}

// afterMove broadcasts the new position and either closes the game or
// hands the turn to a possible bot
func (co *Coordinator) afterMove(t *tourney.Tournament, m *tourney.Match,
	sess *tourney.Session, lastMove json.RawMessage, mover string, res tourney.MoveResult) {

	for _, pid := range []string{m.P1, m.P2} {
		co.sendTo(pid, co.gameStateFrame(m, sess, pid, lastMove, mover))
	}
	if res.GameOver {
		co.finishGame(t, m, sess, res.Winner)
	} else {
		co.driveBot(t, m)
	}
}

// startMatch moves a ready match into play and opens game one
func (co *Coordinator) startMatch(t *tourney.Tournament, m *tourney.Match) {
	if _, err := co.mgr.StartMatch(t.ID, m.ID); err != nil {
		co.log.Warn().Err(err).Str("match", m.ID).Msg("Cannot start match")
		return
	}
	co.log.Info().Str("match", m.ID).Str("game", t.GameID).
		Str("p1", t.PlayerName(m.P1)).Str("p2", t.PlayerName(m.P2)).
		Msg("Match started")
	co.openGame(t, m)
}

// openGame creates the session for the match's current game and tells
// both players
func (co *Coordinator) openGame(t *tourney.Tournament, m *tourney.Match) {
	sess, err := co.sessions.Open(t.ID, m.ID, m.CurrentGame, t.GameID, m.StartingRole)
	if err != nil {
		co.log.Error().Err(err).Str("match", m.ID).Msg("Cannot open game session")
		return
	}
	for _, pid := range []string{m.P1, m.P2} {
		co.sendTo(pid, co.gameStartFrame(t, m, sess, pid))
	}
	co.driveBot(t, m)
}

// finishGame records a finished game with the bracket and either
// schedules the next game of the match or runs the match-end
// pipeline.
func (co *Coordinator) finishGame(t *tourney.Tournament, m *tourney.Match,
	sess *tourney.Session, verdict crjm.Verdict) {

	winnerID := m.PlayerFor(verdict.Role())
	finalState, err := sess.Snapshot()
	if err != nil {
		co.log.Error().Err(err).Msg("Cannot snapshot finished game")
	}
	gameNumber := sess.GameNumber
	co.sessions.Close(m.ID)

	out, err := co.mgr.RecordGameResult(t.ID, m.ID, winnerID)
	if err != nil {
		co.log.Error().Err(err).Str("match", m.ID).Msg("Cannot record game result")
		return
	}

	for _, pid := range []string{m.P1, m.P2} {
		co.sendTo(pid, gameEndFrame{
			Type:       "game_end",
			MatchID:    m.ID,
			GameNumber: gameNumber,
			WinnerID:   winnerID,
			WinnerRole: verdict.String(),
			IsDraw:     verdict == crjm.Draw,
			FinalState: finalState,
			MatchScore: m.Score,
		})
	}

	if !out.MatchFinished {
		co.scheduleNextGame(t, m)
		return
	}
	co.finishMatch(t, m, out)
}

// scheduleNextGame opens the next session after the inter-game pause
func (co *Coordinator) scheduleNextGame(t *tourney.Tournament, m *tourney.Match) {
	if co.interGamePause <= 0 {
		co.openGame(t, m)
		return
	}
	game := m.CurrentGame
	time.AfterFunc(co.interGamePause, func() {
		co.mu.Lock()
		defer co.mu.Unlock()
		// The match may have been finished or reset in the meantime
		if m.Phase != tourney.MatchPlaying || m.CurrentGame != game {
			return
		}
		co.openGame(t, m)
	})
}

func (co *Coordinator) finishMatch(t *tourney.Tournament, m *tourney.Match, out tourney.MatchOutcome) {
	co.log.Info().Str("match", m.ID).Str("winner", t.PlayerName(m.WinnerID)).
		Msg("Match finished")

	for _, pid := range []string{m.P1, m.P2} {
		next := ""
		if nm, ok := t.PlayerMatch(pid); ok {
			next = nm.ID
		}
		co.sendTo(pid, matchEndFrame{
			Type:                     "match_end",
			MatchID:                  m.ID,
			WinnerID:                 m.WinnerID,
			WinnerName:               t.PlayerName(m.WinnerID),
			FinalScore:               m.Score,
			YouWon:                   pid == m.WinnerID,
			EliminatedFromTournament: pid != m.WinnerID && next == "" && !out.TournamentFinished,
			NextMatchID:              next,
		})
	}

	co.broadcast(t, tournamentState(t))

	if out.TournamentFinished {
		co.finishTournament(t)
		return
	}
	co.announceMatches(t)
}

func (co *Coordinator) finishTournament(t *tourney.Tournament) {
	co.log.Info().Str("tournament", t.ID).
		Str("champion", t.PlayerName(t.ChampionID)).Msg("Tournament finished")
	co.broadcast(t, tournamentEndFrame{
		Type:           "tournament_end",
		ChampionID:     t.ChampionID,
		ChampionName:   t.PlayerName(t.ChampionID),
		FinalStandings: t.Standings(),
	})
	co.archiveTournament(t)
}

func (co *Coordinator) archiveTournament(t *tourney.Tournament) {
	if co.archive == nil {
		return
	}
	data, err := co.mgr.Export(t.ID)
	if err != nil {
		co.log.Error().Err(err).Msg("Cannot export tournament for archiving")
		return
	}
	err = co.archive.SaveTournament(context.Background(), db.Entry{
		ID:       t.ID,
		Game:     t.GameID,
		Label:    t.Label,
		Champion: t.ChampionID,
		Ended:    t.Ended,
	}, data)
	if err != nil {
		co.log.Error().Err(err).Msg("Cannot archive tournament")
	}
}

// announceMatches assigns every newly completed pairing to its
// players.  Bots signal readiness immediately; humans are waited for
// unless auto-ready is on.
func (co *Coordinator) announceMatches(t *tourney.Tournament) {
	for _, m := range co.mgr.MatchesReadyToStart(t.ID) {
		if !co.announced[m.ID] {
			co.announced[m.ID] = true
			for _, pid := range []string{m.P1, m.P2} {
				co.sendTo(pid, co.assignedFrame(t, m, pid))
			}
		}

		start := false
		for _, pid := range []string{m.P1, m.P2} {
			p := t.Players[pid]
			if co.autoReady || (p != nil && p.IsBot) {
				can, err := co.mgr.SetReady(t.ID, m.ID, pid)
				if err == nil && can {
					start = true
				}
			}
		}
		if start {
			co.startMatch(t, m)
		}
	}
}

// driveBot hands the turn to the bot policy when the player to move
// is synthetic.  The move lands after a short delay so spectating
// humans can follow; a zero delay plays synchronously.
func (co *Coordinator) driveBot(t *tourney.Tournament, m *tourney.Match) {
	sess, ok := co.sessions.Get(m.ID)
	if !ok || sess.Finished() {
		return
	}
	player := t.Players[m.PlayerFor(sess.Turn())]
	if player == nil || !player.IsBot {
		return
	}

	if sess.MoveCount() >= co.moveCap {
		co.log.Warn().Str("match", m.ID).Int("moves", sess.MoveCount()).
			Msg("Move cap reached, declaring a draw")
		for _, pid := range []string{m.P1, m.P2} {
			co.sendTo(pid, info("move limit reached, game recorded as a draw"))
		}
		co.finishGame(t, m, sess, crjm.Draw)
		return
	}

	if co.botDelay <= 0 {
		co.botMove(t, m, sess, player.ID)
		return
	}
	gameNumber := sess.GameNumber
	time.AfterFunc(co.botDelay, func() {
		co.mu.Lock()
		defer co.mu.Unlock()
		cur, ok := co.sessions.Get(m.ID)
		if !ok || cur != sess || cur.Finished() || cur.GameNumber != gameNumber {
			return
		}
		co.botMove(t, m, cur, player.ID)
	})
}

func (co *Coordinator) botMove(t *tourney.Tournament, m *tourney.Match,
	sess *tourney.Session, botID string) {

	role := m.RoleOf(botID)
	if sess.Turn() != role {
		return
	}
	mv, err := co.policy.Choose(sess.Engine(), sess.State(), role)
	if err != nil {
		co.log.Error().Err(err).Str("match", m.ID).Msg("Bot cannot move")
		return
	}
	res, err := sess.SubmitMove(botID, role, mv)
	if err != nil {
		co.log.Error().Err(err).Str("match", m.ID).Msg("Bot move rejected")
		return
	}
	raw, err := json.Marshal(mv)
	if err != nil {
		raw = nil
	}
	co.afterMove(t, m, sess, raw, botID, res)
}

// Frame builders

func (co *Coordinator) assignedFrame(t *tourney.Tournament, m *tourney.Match, pid string) matchAssignedFrame {
	opp := m.P2
	if pid == m.P2 {
		opp = m.P1
	}
	return matchAssignedFrame{
		Type:         "match_assigned",
		MatchID:      m.ID,
		Round:        m.Round,
		Bracket:      string(m.Bracket),
		YourRole:     m.RoleOf(pid).String(),
		OpponentID:   opp,
		OpponentName: t.PlayerName(opp),
	}
}

func (co *Coordinator) gameStartFrame(t *tourney.Tournament, m *tourney.Match,
	sess *tourney.Session, pid string) gameStartFrame {
	snap, err := sess.Snapshot()
	if err != nil {
		co.log.Error().Err(err).Msg("Cannot snapshot new game")
	}
	return gameStartFrame{
		Type:         "game_start",
		MatchID:      m.ID,
		GameNumber:   sess.GameNumber,
		GameID:       sess.GameID,
		YourRole:     m.RoleOf(pid).String(),
		StartingRole: sess.Turn().String(),
		YourTurn:     sess.Turn() == m.RoleOf(pid),
		State:        snap,
		MatchScore:   m.Score,
	}
}

func (co *Coordinator) gameStateFrame(m *tourney.Match, sess *tourney.Session,
	pid string, lastMove json.RawMessage, mover string) gameStateFrame {
	snap, err := sess.Snapshot()
	if err != nil {
		co.log.Error().Err(err).Msg("Cannot snapshot game state")
	}
	return gameStateFrame{
		Type:       "game_state_update",
		MatchID:    m.ID,
		GameNumber: sess.GameNumber,
		State:      snap,
		YourTurn:   !sess.Finished() && sess.Turn() == m.RoleOf(pid),
		LastMove:   lastMove,
		LastMoveBy: mover,
	}
}

// Delivery helpers

func (co *Coordinator) sendTo(playerID string, v any) {
	if c, ok := co.byPlayer[playerID]; ok {
		c.p.deliver(v)
	}
}

func (co *Coordinator) broadcast(t *tourney.Tournament, v any) {
	for pid := range t.Players {
		co.sendTo(pid, v)
	}
}
