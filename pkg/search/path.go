package search

// This file implements the per-worker search path: the stack of frames
// from the path's root to the worker's current node. The path is what
// makes bounded-memory depth-first search and work stealing possible:
//
//   - Frames store a full node snapshot only every CloneDistance levels
//     ("clone points"); the frames in between are "replay points" that
//     are reconstructed by replaying committed choices forward from the
//     nearest ancestor snapshot.
//   - An idle worker steals the rightmost untried alternative of the
//     shallowest frame that still has one, which grants the thief the
//     largest available subtree while leaving the victim's leftward
//     exploration untouched.
//
// A path is owned by exactly one worker. All methods must be called
// with the owning worker's lock held; Steal is the only method invoked
// on behalf of another worker.

// frame is one level of the search path.
type frame struct {
	// snapshot is the node state at this frame's position before any
	// alternative was committed, or nil for a replay point. Snapshots
	// are immutable once stored; they are only cloned, or handed over
	// wholesale when the final alternative is entered.
	snapshot Node
	// choice describes the alternatives at this frame.
	choice Choicepoint
	// alt is the alternative currently being explored below this frame.
	alt int
	// last is the highest alternative index still owned by this path.
	// Stealing shrinks last; the victim explores [alt, last].
	last int
	// stolen records that at least one alternative was taken by a
	// thief, so this frame's subtree cannot be claimed exhausted by
	// the owning worker alone.
	stolen bool
	// tainted records that some alternative in [0, alt) was not fully
	// explored by the owning worker (its subtree lost work to a thief
	// or was cut off), disqualifying this frame from no-good
	// extraction.
	tainted bool
}

// exhausted reports whether every alternative owned by this path has
// been entered.
func (f *frame) exhausted() bool {
	return f.alt >= f.last
}

// Path is the root-to-current-node branch of one worker.
type Path struct {
	frames    []frame
	snapshots int // retained snapshot count, reported as memory
}

// Size returns the current stack depth.
func (p *Path) Size() int {
	return len(p.frames)
}

// Snapshots returns the number of node snapshots currently retained.
func (p *Path) Snapshots() int {
	return p.snapshots
}

// Reset drops all frames and snapshots.
func (p *Path) Reset() {
	p.frames = nil
	p.snapshots = 0
}

// Push records a new frame for choicepoint cp at the position of cur.
// A full snapshot of cur is stored if *d == 0 or *d has reached
// cloneDistance (then *d resets to 1); otherwise the frame is a replay
// point and *d is incremented. The caller commits alternative 0 to cur
// immediately afterwards.
func (p *Path) Push(cur Node, cp Choicepoint, d *int, cloneDistance int) {
	f := frame{
		choice: cp,
		last:   cp.Alternatives() - 1,
	}
	if *d == 0 || *d >= cloneDistance {
		f.snapshot = cur.Clone()
		p.snapshots++
		*d = 1
	} else {
		*d++
	}
	p.frames = append(p.frames, f)
}

// Next advances the path to its next pending alternative: it pops
// exhausted frames and moves the deepest surviving frame to its next
// alternative. It returns false when the path has no alternative left
// anywhere, in which case the path is empty afterwards.
func (p *Path) Next() bool {
	for len(p.frames) > 0 {
		top := &p.frames[len(p.frames)-1]
		if !top.exhausted() {
			top.alt++
			return true
		}
		p.pop()
	}
	return false
}

// pop removes the top frame, releasing its snapshot and propagating
// incompleteness to the parent frame's current alternative.
func (p *Path) pop() {
	top := &p.frames[len(p.frames)-1]
	if top.snapshot != nil {
		top.snapshot = nil
		p.snapshots--
	}
	incomplete := top.stolen || top.tainted
	p.frames = p.frames[:len(p.frames)-1]
	if incomplete && len(p.frames) > 0 {
		p.frames[len(p.frames)-1].tainted = true
	}
}

// MarkIncomplete taints the top frame's current alternative. Workers
// call it when they abandon their current node on a cooperative stop,
// so the abandoned subtree is never summarized as exhausted.
func (p *Path) MarkIncomplete() {
	if len(p.frames) > 0 {
		p.frames[len(p.frames)-1].tainted = true
	}
}

// Recompute reconstructs the node for the alternative that Next just
// entered. It clones the nearest ancestor snapshot and replays the
// committed choices forward; every adaptiveDistance replay steps it
// stores an intermediate snapshot to re-bound the cost of the next
// backtrack through the same region. *d is updated to the distance
// between the new current node and its nearest snapshot.
//
// Must only be called after Next returned true.
func (p *Path) Recompute(d *int, adaptiveDistance int) Node {
	top := len(p.frames) - 1
	i := top
	for p.frames[i].snapshot == nil {
		i--
	}

	if i == top {
		f := &p.frames[top]
		var n Node
		if f.exhausted() && !f.stolen {
			// Final alternative: hand the snapshot itself over, the
			// frame will be popped before it is ever needed again.
			n = f.snapshot
			f.snapshot = nil
			p.snapshots--
			*d = 0
		} else {
			n = f.snapshot.Clone()
			*d = 0
		}
		n.Commit(f.choice, f.alt)
		return n
	}

	n := p.frames[i].snapshot.Clone()
	lastSnap := i
	steps := 0
	for k := i; k < top; k++ {
		f := &p.frames[k]
		n.Commit(f.choice, f.alt)
		steps++
		next := &p.frames[k+1]
		if steps >= adaptiveDistance && next.snapshot == nil {
			next.snapshot = n.Clone()
			p.snapshots++
			lastSnap = k + 1
			steps = 0
		}
	}
	f := &p.frames[top]
	n.Commit(f.choice, f.alt)
	*d = top - lastSnap
	return n
}

// Steal detaches the rightmost untried alternative of the shallowest
// frame that still has one and returns a reconstructed node for it,
// together with the committed-choice steps from the path root to that
// node. Returns ok == false when no frame has untried work.
//
// Called by a thief holding the victim's lock.
func (p *Path) Steal() (n Node, steps []Step, ok bool) {
	for i := range p.frames {
		f := &p.frames[i]
		if f.exhausted() {
			continue
		}
		j := i
		for p.frames[j].snapshot == nil {
			j--
		}
		n = p.frames[j].snapshot.Clone()
		for k := j; k < i; k++ {
			n.Commit(p.frames[k].choice, p.frames[k].alt)
		}
		n.Commit(f.choice, f.last)

		steps = make([]Step, 0, i+1)
		for k := 0; k < i; k++ {
			steps = append(steps, Step{Choice: p.frames[k].choice, Alt: p.frames[k].alt})
		}
		steps = append(steps, Step{Choice: f.choice, Alt: f.last})

		f.last--
		f.stolen = true
		return n, steps, true
	}
	return nil, nil, false
}

// NoGoods summarizes the fully explored region of this path as
// no-goods: for every untainted frame within maxDepth of the global
// root, each alternative to the left of the current one has had its
// subtree exhausted by the owning worker, so the choice prefix ending
// in that alternative is a no-good. prefix is the worker's
// committed-choice sequence from the global root to this path's root
// (empty unless the path was adopted through a steal).
func (p *Path) NoGoods(prefix []Step, maxDepth int) []NoGood {
	if maxDepth <= len(prefix) {
		return nil
	}
	var ngs []NoGood
	budget := maxDepth - len(prefix)
	if budget > len(p.frames) {
		budget = len(p.frames)
	}
	for i := 0; i < budget; i++ {
		f := &p.frames[i]
		if !f.tainted {
			for a := 0; a < f.alt; a++ {
				steps := make([]Step, 0, len(prefix)+i+1)
				steps = append(steps, prefix...)
				for k := 0; k < i; k++ {
					steps = append(steps, Step{Choice: p.frames[k].choice, Alt: p.frames[k].alt})
				}
				steps = append(steps, Step{Choice: f.choice, Alt: a})
				ngs = append(ngs, NoGood{Steps: steps})
			}
		}
	}
	return ngs
}
