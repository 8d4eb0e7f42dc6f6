package finder

// Navigator tracks the highlighted row of a result list. The web client
// implements the same rules in its script.
type Navigator struct {
	count    int
	selected int
	active   bool
}

// Len returns the number of results being navigated
func (n *Navigator) Len() int {
	return n.count
}

// Selection returns the highlighted row, if any
func (n *Navigator) Selection() (int, bool) {
	return n.selected, n.active
}

// Down moves the selection one row down, wrapping to the top. The first
// move from no selection lands on row 0.
func (n *Navigator) Down() {
	n.move(1)
}

// Up moves the selection one row up, wrapping to the bottom. The first
// move from no selection lands on row 0.
func (n *Navigator) Up() {
	n.move(n.count - 1)
}

func (n *Navigator) move(offset int) {
	if n.count == 0 {
		return
	}
	next := 0
	if n.active {
		next = n.selected + offset
	}
	n.selected = next % n.count
	n.active = true
}

// Go returns the row to open: the selection, or the first row when nothing
// is selected. ok is false without results.
func (n *Navigator) Go() (index int, ok bool) {
	if n.count == 0 {
		return 0, false
	}
	if n.active {
		return n.selected, true
	}
	return 0, true
}

// Cancel clears the selection
func (n *Navigator) Cancel() {
	if n.count == 0 {
		return
	}
	n.active = false
	n.selected = 0
}

// Select highlights row i, typically on hover
func (n *Navigator) Select(i int) {
	if n.count == 0 || i < 0 || i >= n.count {
		return
	}
	n.selected = i
	n.active = true
}

// Reset adapts the selection to a new result list of count rows: cleared
// when empty, otherwise kept modulo the new length.
func (n *Navigator) Reset(count int) {
	n.count = count
	if count <= 0 {
		n.count = 0
		n.active = false
		n.selected = 0
		return
	}
	if n.active {
		n.selected %= count
	}
}
