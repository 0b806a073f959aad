// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

// Traversable reports whether the exit from room from to room to can be used
// right now. An exit is blocked when a door in from leads to to and is
// locked or closed.
func (w *World) Traversable(from, to string) bool {
	_, door, ok := w.DoorBetween(from, to)
	return !ok || door.Passable()
}

// FindPath runs a breadth-first search over room exits. The returned path
// excludes from and ends at to. ok is false iff to is unreachable through
// currently traversable exits; from == to yields an empty path with ok true.
func (w *World) FindPath(from, to string) ([]string, bool) {
	if from == to {
		return []string{}, w.Has(from)
	}
	if !w.Has(from) || !w.Has(to) {
		return nil, false
	}
	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		e, ok := w.Get(cur)
		if !ok {
			continue
		}
		room, ok := As[*Room](e)
		if !ok {
			continue
		}
		for _, dir := range room.ExitNames() {
			next := room.Exits[dir]
			if _, seen := prev[next]; seen || !w.Has(next) {
				continue
			}
			if !w.Traversable(cur, next) {
				continue
			}
			prev[next] = cur
			if next == to {
				return unwind(prev, from, to), true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

func unwind(prev map[string]string, from, to string) []string {
	var rev []string
	for at := to; at != from; at = prev[at] {
		rev = append(rev, at)
	}
	out := make([]string, len(rev))
	for i, id := range rev {
		out[len(rev)-1-i] = id
	}
	return out
}
