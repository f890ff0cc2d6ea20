package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/wrenchat/wren/pkg/protocol"
)

func TestRequestOlderAdvancesOptimistically(t *testing.T) {
	h := NewHistory()

	// Three consecutive scroll-to-top events, no responses yet
	off1, ok := h.RequestOlder(15)
	require.True(t, ok)
	off2, ok := h.RequestOlder(15)
	require.True(t, ok)
	off3, ok := h.RequestOlder(15)
	require.True(t, ok)

	assert.Equal(t, 0, off1)
	assert.Equal(t, 15, off2)
	assert.Equal(t, 30, off3)

	// A fourth event before any response still never repeats an offset
	off4, ok := h.RequestOlder(15)
	require.True(t, ok)
	assert.Equal(t, 45, off4)
}

func TestShortPageStopsPagination(t *testing.T) {
	h := NewHistory()

	_, ok := h.RequestOlder(15)
	require.True(t, ok)

	// 10 < 15: history is fully loaded
	page := make([]protocol.Message, 10)
	for i := range page {
		page[i] = testMessage(uint64(i+1), 1, 1, "old")
	}
	h.AddPage(page, 15)

	_, ok = h.RequestOlder(15)
	assert.False(t, ok, "no further pages once a short page arrived")
	assert.True(t, h.Complete())
	assert.True(t, h.LoadedBottom())
}

func TestAddPagePrependsKeepingOrder(t *testing.T) {
	h := NewHistory()

	h.AppendLive(testMessage(30, 1, 1, "newest"))

	// Page of older messages, oldest first within the page
	h.AddPage([]protocol.Message{
		testMessage(10, 1, 1, "oldest"),
		testMessage(20, 1, 1, "older"),
	}, 2)

	ids := make([]uint64, 0, h.Len())
	for _, m := range h.Messages() {
		ids = append(ids, m.MsgID)
	}
	assert.Equal(t, []uint64{10, 20, 30}, ids)
}

func TestAppendLiveMarksBottom(t *testing.T) {
	h := NewHistory()
	assert.False(t, h.LoadedBottom())

	h.AppendLive(testMessage(1, 1, 1, "hi"))
	assert.True(t, h.LoadedBottom())
	assert.Equal(t, 1, h.Len())
}

func TestDeleteIsIdempotent(t *testing.T) {
	h := NewHistory()
	h.AppendLive(testMessage(1, 1, 1, "a"))
	h.AppendLive(testMessage(2, 1, 1, "b"))

	assert.True(t, h.Delete(1))
	// Duplicate delete push: no-op, no panic
	assert.False(t, h.Delete(1))
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, uint64(2), h.Messages()[0].MsgID)
}

func TestClearResetsCursor(t *testing.T) {
	h := NewHistory()
	h.RequestOlder(15)
	h.RequestOlder(15)
	h.AppendLive(testMessage(1, 1, 1, "a"))
	require.Equal(t, 30, h.Offset())

	h.Clear()
	assert.Equal(t, 0, h.Offset())
	assert.Equal(t, 0, h.Len())

	off, ok := h.RequestOlder(15)
	require.True(t, ok)
	assert.Equal(t, 0, off)
}

// TestCursorMonotonicity checks that any interleaving of scroll events and
// page responses never requests the same offset twice.
func TestCursorMonotonicity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := NewHistory()
		limit := rapid.IntRange(1, 50).Draw(t, "limit")
		steps := rapid.IntRange(1, 40).Draw(t, "steps")

		seen := make(map[int]bool)
		outstanding := 0

		for i := 0; i < steps; i++ {
			if outstanding > 0 && rapid.Bool().Draw(t, "deliver") {
				// Deliver a full page for some outstanding request
				page := make([]protocol.Message, limit)
				for j := range page {
					page[j] = testMessage(uint64(i*100+j+1), 1, 1, "m")
				}
				h.AddPage(page, limit)
				outstanding--
				continue
			}

			offset, ok := h.RequestOlder(limit)
			if !ok {
				continue
			}
			if seen[offset] {
				t.Fatalf("offset %d requested twice", offset)
			}
			seen[offset] = true
			outstanding++
		}
	})
}
