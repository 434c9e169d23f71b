// Per-game evaluation heuristics
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

package bot

import (
	"math"

	crjm "github.com/atilasos/crjm-server"
	"github.com/atilasos/crjm-server/game"
)

// heuristic dispatches to the evaluator for the engine at hand.
// Unknown engines degrade to a random choice rather than failing.
func (p *Policy) heuristic(e game.Engine, s game.State, role crjm.Role,
	moves []game.Move) game.Move {

	switch e.ID() {
	case "gatos-caes":
		return p.best(e, s, role, moves, mobilityEval(e, role, 10, 8))
	case "dominorio":
		return p.best(e, s, role, moves, dominorioEval(e, role))
	case "quelhas":
		return p.best(e, s, role, moves, mobilityEval(e, role, 1, 3))
	case "produto":
		return p.best(e, s, role, p.sample(moves), produtoEval(role))
	case "atari-go":
		return p.best(e, s, role, moves, atariEval(role))
	case "nex":
		return p.best(e, s, role, p.sample(moves), nexEval(role))
	default:
		return moves[p.rng.Intn(len(moves))]
	}
}

// mobilityEval weighs own options against the opponent's after the
// candidate move
func mobilityEval(e game.Engine, role crjm.Role, mine, theirs float64) func(game.Move, game.State) float64 {
	return func(_ game.Move, next game.State) float64 {
		my := float64(len(e.Moves(next, role)))
		opp := float64(len(e.Moves(next, role.Other())))
		return my*mine - opp*theirs
	}
}

// dominorioEval looks one opponent reply ahead: the opponent is
// assumed to pick the reply that hurts the leaf mobility balance
// most.
func dominorioEval(e game.Engine, role crjm.Role) func(game.Move, game.State) float64 {
	opp := role.Other()
	leaf := func(s game.State) float64 {
		return 5*float64(len(e.Moves(s, role))) - 4*float64(len(e.Moves(s, opp)))
	}
	return func(_ game.Move, next game.State) float64 {
		worst := math.Inf(1)
		for _, reply := range e.Moves(next, opp) {
			after, err := e.Apply(next, reply, opp)
			if err != nil {
				continue
			}
			if after.Terminal() && after.Winner() == crjm.VerdictFor(opp) {
				return lossScore / 2
			}
			if v := leaf(after); v < worst {
				worst = v
			}
		}
		if math.IsInf(worst, 1) {
			// Opponent is stuck after this move
			return winScore / 2
		}
		return worst
	}
}

func produtoEval(role crjm.Role) func(game.Move, game.State) float64 {
	return func(_ game.Move, next game.State) float64 {
		black, white := game.ProdutoScores(next)
		my, opp := float64(black), float64(white)
		if role == crjm.RoleP2 {
			my, opp = opp, my
		}
		return my - 0.9*opp
	}
}

func atariEval(role crjm.Role) func(game.Move, game.State) float64 {
	opp := role.Other()
	return func(m game.Move, next game.State) float64 {
		score := 100*float64(game.AtariGroupsInAtari(next, opp)) -
			80*float64(game.AtariGroupsInAtari(next, role))
		am, ok := m.(game.AtariMove)
		if !ok || am.Pass {
			// Passing hands the opponent the initiative; take it only
			// when every placement is clearly self-destructive.
			return score - 50
		}
		return score - 2*float64(abs(am.Row-4)+abs(am.Col-4))
	}
}

// nexEval biases placements toward the line connecting one's edges:
// black builds near the center column, white near the center row.
func nexEval(role crjm.Role) func(game.Move, game.State) float64 {
	return func(m game.Move, next game.State) float64 {
		nm, ok := m.(game.NexMove)
		if !ok || nm.Type != "place" {
			return -5
		}
		black := game.NexColor(next, role)
		dist := abs(nm.Piece.Col - 5)
		if !black {
			dist = abs(nm.Piece.Row - 5)
		}
		return -float64(dist)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
