// Package queue implements the per-guild queue engine (spec §4.3): the
// concurrent insertion-mode dispatch table, rotate/skip/drain primitives,
// and the per-track attachment tagging used by the voice session
// controller's track-end hook.
package queue

import (
	"fmt"
	"math/rand"

	"cracktunes/internal/types"
)

// Node is one queued track: its resolved query, the metadata snapshot
// taken at enqueue time, and the user who requested it. The track id is
// assigned by the voice controller when it registers the node's
// attachment, not here — the queue itself only orders nodes.
type Node struct {
	Query     types.QueryKind
	Metadata  types.TrackMetadata
	Requester types.RequestingUser
	TrackID   string
}

// Queue is the ordered list of tracks for one guild's Call. Index 0 is
// always the currently-playing track (the "head"). All mutating methods
// assume the caller already holds the Call's mutex — the queue has no
// lock of its own, matching spec §5's rule that queue mutations are
// linearized by the voice-call mutex, not an independent one.
type Queue struct {
	nodes []*Node
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Len returns the number of queued tracks, including the head.
func (q *Queue) Len() int { return len(q.nodes) }

// Current returns a snapshot of the queue in play order, head first.
func (q *Queue) Current() []*Node {
	out := make([]*Node, len(q.nodes))
	copy(out, q.nodes)
	return out
}

// IndexOf returns the 0-based position of n in the queue, or -1 if n is
// not present. Used by callers that need to report where a just-dispatched
// track actually landed (spec §4.6's "Position" reply field).
func (q *Queue) IndexOf(n *Node) int {
	for i, cur := range q.nodes {
		if cur == n {
			return i
		}
	}
	return -1
}

// Head returns the currently-playing track, if any.
func (q *Queue) Head() (*Node, bool) {
	if len(q.nodes) == 0 {
		return nil, false
	}
	return q.nodes[0], true
}

// EnqueueBack appends n to the tail of the queue (invariant §8.1:
// last(q) == n after this call).
func (q *Queue) EnqueueBack(n *Node) {
	q.nodes = append(q.nodes, n)
}

// EnqueueFront enqueues n then, if the queue had at least two items before
// this call, moves the new tail to index 1 — directly after the head —
// otherwise leaves it where it was appended: index 0 on an empty queue,
// index 1 behind a lone head (spec §4.3; invariant §8.2: q[1] == n and
// head(q) unchanged when the queue already had a head).
func (q *Queue) EnqueueFront(n *Node) {
	hadAtLeastTwo := len(q.nodes) >= 2
	q.nodes = append(q.nodes, n)
	if hadAtLeastTwo {
		q.moveToIndex(len(q.nodes)-1, 1)
	}
	// A queue with zero or one pre-existing items: the new node has
	// nothing to jump ahead of besides a head that isn't "ahead" of it,
	// so it's left appended (which is index 0 or 1, already correct).
}

// InsertAt validates 1 <= idx <= len+1 (pre-insertion length) and places n
// at that index, preserving order of everything else (spec §4.3,
// invariant §8.3).
func (q *Queue) InsertAt(n *Node, idx int) error {
	if idx < 1 || idx > len(q.nodes)+1 {
		return types.NewNotInRange("index", float64(idx), 1, float64(len(q.nodes)+1))
	}
	q.nodes = append(q.nodes, n)
	q.moveToIndex(len(q.nodes)-1, idx)
	return nil
}

// moveToIndex relocates the node currently at "from" to position "to",
// shifting everything in between. Both are slice indices into q.nodes.
func (q *Queue) moveToIndex(from, to int) {
	if to > len(q.nodes)-1 {
		to = len(q.nodes) - 1
	}
	if from == to {
		return
	}
	n := q.nodes[from]
	q.nodes = append(q.nodes[:from], q.nodes[from+1:]...)
	q.nodes = append(q.nodes[:to], append([]*Node{n}, q.nodes[to:]...)...)
}

// RotateRight splits the queue after the head and rotates the tail right
// by n positions, then rejoins — used by the Jump mode to bring a
// just-appended track to index 1 before force-skipping the head.
func (q *Queue) RotateRight(n int) {
	if len(q.nodes) < 3 {
		return
	}
	head, tail := q.nodes[:1], q.nodes[1:]
	n = n % len(tail)
	if n < 0 {
		n += len(tail)
	}
	if n == 0 {
		return
	}
	rotated := append(append([]*Node{}, tail[len(tail)-n:]...), tail[:len(tail)-n]...)
	q.nodes = append(head, rotated...)
}

// ForceSkipHead dequeues the head track. Stopping the actual playback of
// that track is the caller's responsibility (the voice controller cancels
// the track's playback context before or immediately after calling this) —
// naive removal without also advancing the call's player would leave the
// stopped track's audio still flowing, which is why this pattern is
// mandatory rather than a plain slice removal (spec §4.3). Reduces length
// by exactly one, or leaves it at zero (invariant §8.4).
func (q *Queue) ForceSkipHead() (newHead *Node, hasHead bool) {
	if len(q.nodes) == 0 {
		return nil, false
	}
	q.nodes = q.nodes[1:]
	return q.Head()
}

// Drain removes a contiguous range [start, end) while preserving the head
// if start > 0 (i.e. it never removes index 0 unless explicitly told to).
func (q *Queue) Drain(start, end int) []*Node {
	if start < 0 {
		start = 0
	}
	if end > len(q.nodes) {
		end = len(q.nodes)
	}
	if start >= end {
		return nil
	}
	removed := append([]*Node{}, q.nodes[start:end]...)
	q.nodes = append(q.nodes[:start], q.nodes[end:]...)
	return removed
}

// Clear removes every queued track, including the head.
func (q *Queue) Clear() []*Node {
	removed := q.nodes
	q.nodes = nil
	return removed
}

// Skip drains tracks 1..min(n,len) then force-skips the head, leaving the
// queue at length max(L-min(n,L),0) per spec §4.6/§8.5. Returns the nodes
// removed entirely by the drain step (the force-skipped head is not
// included, matching the command-messaging distinction between "skipped N"
// and the head that was actually stopped).
func (q *Queue) Skip(n int) (drained []*Node, newHead *Node, hasHead bool) {
	if n < 1 {
		n = 1
	}
	l := len(q.nodes)
	if l == 0 {
		return nil, nil, false
	}
	toDrain := n - 1
	if toDrain > l-1 {
		toDrain = l - 1
	}
	if toDrain > 0 {
		drained = q.Drain(1, 1+toDrain)
	}
	newHead, hasHead = q.ForceSkipHead()
	return drained, newHead, hasHead
}

// Dispatch applies the insertion-mode table from spec §4.3 to an ordered
// set of already-resolved nodes. For a single-track query, nodes has
// length 1; for a playlist/list query, nodes preserves the resolved order
// (Reverse/Shuffle reorder nodes before calling Dispatch — see
// OrderForMode). jumped reports whether the dispatch forced a skip of the
// previous head (Jump mode on a non-empty queue), which callers use to
// decide whether to reply with a now-playing embed immediately.
func (q *Queue) Dispatch(mode types.PlaybackMode, nodes []*Node) (jumped bool, err error) {
	switch mode {
	case types.ModeEnd, types.ModeAll, types.ModeReverse, types.ModeShuffle:
		for _, n := range nodes {
			q.EnqueueBack(n)
		}
		return false, nil

	case types.ModeNext:
		idx := 1
		for _, n := range nodes {
			if q.Len() == 0 {
				q.EnqueueBack(n)
			} else if err := q.InsertAt(n, idx); err != nil {
				return false, err
			}
			idx++
		}
		return false, nil

	case types.ModeJump:
		if len(nodes) == 0 {
			return false, nil
		}
		first, rest := nodes[0], nodes[1:]
		hadTracks := q.Len() > 0
		q.EnqueueBack(first)
		if hadTracks {
			q.RotateRight(1)
			q.ForceSkipHead()
			jumped = true
		}
		idx := 1
		for _, n := range rest {
			if err := q.InsertAt(n, idx); err != nil {
				return jumped, err
			}
			idx++
		}
		return jumped, nil

	default:
		return false, fmt.Errorf("queue: dispatch: unsupported mode %s", mode)
	}
}

// OrderForMode reorders a resolved track list per mode before Dispatch is
// called: Reverse reverses it, Shuffle randomizes it, every other mode
// keeps resolver order unchanged.
func OrderForMode(mode types.PlaybackMode, nodes []*Node) []*Node {
	switch mode {
	case types.ModeReverse:
		out := make([]*Node, len(nodes))
		for i, n := range nodes {
			out[len(nodes)-1-i] = n
		}
		return out
	case types.ModeShuffle:
		out := append([]*Node{}, nodes...)
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	default:
		return nodes
	}
}
