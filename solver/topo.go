// Package solver implements the constraint-satisfying layout placement
// algorithm: topological seeding, depth-first placement (one best candidate
// per object, no retry of earlier objects' other candidates), AABB
// collision rejection, and failure trace generation, ported from
// original_source/holodeck_core/scene_gen/{dfs_solver,failure_analysis}.py.
package solver

import "github.com/holodeck-scenegen/scenegen/constraints"

// topologicalSeedOrder builds a directed graph over directional
// (non-symmetric) relations and returns a placement order via Kahn's
// algorithm, appending any residual-cycle members in deterministic input
// order.
func topologicalSeedOrder(objectIDs []string, cset []constraints.Constraint) []string {
	deps := make(map[string]map[string]bool, len(objectIDs))
	index := make(map[string]bool, len(objectIDs))
	for _, id := range objectIDs {
		deps[id] = map[string]bool{}
		index[id] = true
	}

	for _, c := range cset {
		if constraints.IsSymmetric(c.Relation) {
			continue
		}
		if index[c.Source] && index[c.Target] {
			deps[c.Source][c.Target] = true
		}
	}

	incoming := make(map[string]int, len(objectIDs))
	for id := range deps {
		incoming[id] = 0
	}
	for _, targets := range deps {
		for t := range targets {
			incoming[t]++
		}
	}

	var queue []string
	for _, id := range objectIDs {
		if incoming[id] == 0 {
			queue = append(queue, id)
		}
	}

	visited := make(map[string]bool, len(objectIDs))
	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)

		targetsInOrder := make([]string, 0, len(deps[id]))
		for _, candidate := range objectIDs {
			if deps[id][candidate] {
				targetsInOrder = append(targetsInOrder, candidate)
			}
		}
		for _, t := range targetsInOrder {
			incoming[t]--
			if incoming[t] == 0 {
				queue = append(queue, t)
			}
		}
	}

	for _, id := range objectIDs {
		if !visited[id] {
			order = append(order, id)
			visited[id] = true
		}
	}
	return order
}
