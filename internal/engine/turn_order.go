package engine

// Draw order is the player list order. drawerIndex is -1 until the first turn.

func (r *Room) advanceDrawerLocked() {
	r.drawerIndex++
	if r.drawerIndex >= len(r.players) {
		r.drawerIndex = 0
		r.round++
	}
}

// removeFromRotationLocked keeps drawerIndex pointing at the same player after
// the player at idx left. When the drawer themself left, the index steps back
// so the next advance lands on whoever took their slot.
func (r *Room) removeFromRotationLocked(idx int) {
	if r.drawerIndex < 0 {
		return
	}
	if idx <= r.drawerIndex {
		r.drawerIndex--
	}
	if r.drawerIndex >= len(r.players) {
		r.drawerIndex = len(r.players) - 1
	}
}
