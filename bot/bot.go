// Bot move selection
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

// Package bot picks moves for machine players.  A Policy is handed
// the same engine and state a remote client would see, so bots and
// humans are interchangeable from the coordinator's point of view.
package bot

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	crjm "github.com/atilasos/crjm-server"
	"github.com/atilasos/crjm-server/game"
)

// Level selects how hard a bot tries
type Level string

const (
	Basic    Level = "basic"    // uniform random legal move
	Advanced Level = "advanced" // per-game heuristics
)

// ParseLevel validates a level name from config or the admin API
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case Basic, Advanced:
		return Level(s), nil
	default:
		return "", fmt.Errorf("unknown bot level %q", s)
	}
}

// ErrNoMoves is returned when the position offers nothing to play.
// The caller should have noticed the state is terminal before asking.
var ErrNoMoves = errors.New("no legal moves")

// Candidate positions scored per turn before the heuristics give up
// on exhaustive evaluation
const maxCandidates = 100

// Policy chooses moves at a fixed level.  Safe for concurrent use;
// the seed makes runs reproducible.
type Policy struct {
	mu    sync.Mutex
	rng   *rand.Rand
	level Level
}

func New(level Level, seed int64) *Policy {
	return &Policy{rng: rand.New(rand.NewSource(seed)), level: level}
}

func (p *Policy) Level() Level { return p.level }

// Choose returns a legal move for ROLE in the given position
func (p *Policy) Choose(e game.Engine, s game.State, role crjm.Role) (game.Move, error) {
	moves := e.Moves(s, role)
	if len(moves) == 0 {
		return nil, ErrNoMoves
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.level == Basic {
		return moves[p.rng.Intn(len(moves))], nil
	}
	return p.heuristic(e, s, role, moves), nil
}

// sample trims an oversized move list to maxCandidates, in place
func (p *Policy) sample(moves []game.Move) []game.Move {
	if len(moves) <= maxCandidates {
		return moves
	}
	p.rng.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})
	return moves[:maxCandidates]
}

const (
	winScore  = 1e9
	lossScore = -1e9
)

// best applies every candidate and keeps the top scorer; ties fall to
// the first-encountered move.  Terminal children short-circuit the
// evaluator.
func (p *Policy) best(e game.Engine, s game.State, role crjm.Role,
	moves []game.Move, eval func(m game.Move, next game.State) float64) game.Move {

	var (
		bestMove  game.Move
		bestScore float64
	)
	for _, m := range moves {
		next, err := e.Apply(s, m, role)
		if err != nil {
			continue
		}
		var score float64
		if next.Terminal() {
			switch next.Winner() {
			case crjm.VerdictFor(role):
				score = winScore
			case crjm.Draw:
				score = 0
			default:
				score = lossScore
			}
		} else {
			score = eval(m, next)
		}
		if bestMove == nil || score > bestScore {
			bestMove, bestScore = m, score
		}
	}
	if bestMove == nil {
		return moves[p.rng.Intn(len(moves))]
	}
	return bestMove
}
