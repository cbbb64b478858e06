package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cracktunes/internal/types"
)

func node(title string) *Node {
	return &Node{Metadata: types.TrackMetadata{TrackTitle: title}}
}

func titles(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Metadata.TrackTitle
	}
	return out
}

func TestEnqueueBackAppendsToTail(t *testing.T) {
	q := New()
	q.EnqueueBack(node("a"))
	q.EnqueueBack(node("b"))
	last := q.Current()[q.Len()-1]
	assert.Equal(t, "b", last.Metadata.TrackTitle)
}

func TestEnqueueFrontInsertsAfterHead(t *testing.T) {
	q := New()
	q.EnqueueBack(node("head"))
	q.EnqueueBack(node("b"))
	q.EnqueueBack(node("c"))
	q.EnqueueFront(node("new"))
	assert.Equal(t, []string{"head", "new", "b", "c"}, titles(q.Current()))
}

func TestEnqueueFrontOnSingleItemQueueAppends(t *testing.T) {
	q := New()
	q.EnqueueBack(node("head"))
	q.EnqueueFront(node("new"))
	assert.Equal(t, []string{"head", "new"}, titles(q.Current()))
}

func TestEnqueueFrontOnEmptyQueueBecomesHead(t *testing.T) {
	q := New()
	q.EnqueueFront(node("new"))
	assert.Equal(t, []string{"new"}, titles(q.Current()))
}

func TestInsertAtValidatesRange(t *testing.T) {
	q := New()
	q.EnqueueBack(node("a"))
	q.EnqueueBack(node("b"))

	require.NoError(t, q.InsertAt(node("mid"), 2))
	assert.Equal(t, []string{"a", "mid", "b"}, titles(q.Current()))

	err := q.InsertAt(node("bad"), 0)
	var cerr *types.CrackedError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, types.ErrNotInRange, cerr.Kind)

	err = q.InsertAt(node("bad"), 10)
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, types.ErrNotInRange, cerr.Kind)

	// Upper bound len+1 (append at tail) is valid.
	require.NoError(t, q.InsertAt(node("tail"), 4))
	assert.Equal(t, []string{"a", "mid", "b", "tail"}, titles(q.Current()))
}

func TestForceSkipHeadReducesLengthByOne(t *testing.T) {
	q := New()
	q.EnqueueBack(node("a"))
	q.EnqueueBack(node("b"))

	newHead, ok := q.ForceSkipHead()
	require.True(t, ok)
	assert.Equal(t, "b", newHead.Metadata.TrackTitle)
	assert.Equal(t, 1, q.Len())

	_, ok = q.ForceSkipHead()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestSkipLeavesMaxLMinusN(t *testing.T) {
	cases := []struct {
		length, n, want int
	}{
		{5, 2, 3},
		{3, 10, 0},
		{1, 1, 0},
		{0, 1, 0},
	}
	for _, c := range cases {
		q := New()
		for i := 0; i < c.length; i++ {
			q.EnqueueBack(node("t"))
		}
		q.Skip(c.n)
		assert.Equal(t, c.want, q.Len(), "length=%d n=%d", c.length, c.n)
	}
}

func TestDrainPreservesHeadWhenStartPositive(t *testing.T) {
	q := New()
	q.EnqueueBack(node("head"))
	q.EnqueueBack(node("b"))
	q.EnqueueBack(node("c"))
	q.EnqueueBack(node("d"))

	removed := q.Drain(1, 3)
	assert.Equal(t, []string{"b", "c"}, titles(removed))
	assert.Equal(t, []string{"head", "d"}, titles(q.Current()))
}

func TestRotateRightSplitsAfterHead(t *testing.T) {
	q := New()
	q.EnqueueBack(node("head"))
	q.EnqueueBack(node("b"))
	q.EnqueueBack(node("c"))
	q.EnqueueBack(node("d"))
	q.RotateRight(1)
	assert.Equal(t, []string{"head", "d", "b", "c"}, titles(q.Current()))
}

func TestDispatchEndEnqueuesAllInOrder(t *testing.T) {
	q := New()
	nodes := []*Node{node("a"), node("b"), node("c")}
	jumped, err := q.Dispatch(types.ModeEnd, nodes)
	require.NoError(t, err)
	assert.False(t, jumped)
	assert.Equal(t, []string{"a", "b", "c"}, titles(q.Current()))
}

func TestDispatchNextPreservesOrderAfterHead(t *testing.T) {
	q := New()
	q.EnqueueBack(node("head"))
	nodes := []*Node{node("a"), node("b")}
	_, err := q.Dispatch(types.ModeNext, nodes)
	require.NoError(t, err)
	assert.Equal(t, []string{"head", "a", "b"}, titles(q.Current()))
}

func TestDispatchJumpOnNonEmptyQueueForceSkipsToNewHead(t *testing.T) {
	q := New()
	q.EnqueueBack(node("head"))
	q.EnqueueBack(node("b"))
	jumped, err := q.Dispatch(types.ModeJump, []*Node{node("jumped")})
	require.NoError(t, err)
	assert.True(t, jumped)
	assert.Equal(t, []string{"jumped", "b"}, titles(q.Current()))
}

func TestDispatchJumpOnEmptyQueueJustEnqueues(t *testing.T) {
	q := New()
	jumped, err := q.Dispatch(types.ModeJump, []*Node{node("first")})
	require.NoError(t, err)
	assert.False(t, jumped)
	assert.Equal(t, []string{"first"}, titles(q.Current()))
}

func TestOrderForModeReverse(t *testing.T) {
	nodes := []*Node{node("a"), node("b"), node("c")}
	out := OrderForMode(types.ModeReverse, nodes)
	assert.Equal(t, []string{"c", "b", "a"}, titles(out))
}

func TestOrderForModeShuffleIsPermutation(t *testing.T) {
	nodes := []*Node{node("a"), node("b"), node("c"), node("d")}
	out := OrderForMode(types.ModeShuffle, nodes)
	require.Len(t, out, 4)
	seen := map[string]bool{}
	for _, n := range out {
		seen[n.Metadata.TrackTitle] = true
	}
	assert.Len(t, seen, 4)
}

func TestKeywordListEndModeEnqueuesExactlyNInOrder(t *testing.T) {
	list := types.KeywordList{Items: []string{"one", "two", "three"}}
	nodes := make([]*Node, len(list.Items))
	for i, text := range list.Items {
		nodes[i] = &Node{Query: types.Keywords{Text: text}, Metadata: types.TrackMetadata{TrackTitle: text}}
	}
	q := New()
	_, err := q.Dispatch(types.ModeEnd, nodes)
	require.NoError(t, err)
	require.Equal(t, len(list.Items), q.Len())
	assert.Equal(t, list.Items, titles(q.Current()))
}
