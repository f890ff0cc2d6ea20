package client

import (
	"github.com/wrenchat/wren/pkg/protocol"
)

// History is one group's ordered message list with a backward pagination
// cursor. Offset counts older messages already requested; it advances
// optimistically when a page is requested, so overlapping scroll events never
// ask for the same page twice. Mutated only on the client event loop.
type History struct {
	msgs   []protocol.Message
	offset int

	// complete is set once a history page comes back short: there is nothing
	// older to fetch.
	complete bool

	// loadedBottom is set once a live message has been appended or a history
	// fetch returned fewer than the page size.
	loadedBottom bool
}

// NewHistory returns an empty history with the cursor at zero.
func NewHistory() *History {
	return &History{}
}

// Messages returns the messages in chronological ascending order.
func (h *History) Messages() []protocol.Message {
	return h.msgs
}

// Len returns the number of loaded messages.
func (h *History) Len() int {
	return len(h.msgs)
}

// Offset returns the pagination cursor.
func (h *History) Offset() int {
	return h.offset
}

// Complete reports whether everything older has been loaded; RequestOlder
// refuses once this is set.
func (h *History) Complete() bool {
	return h.complete
}

// LoadedBottom reports whether the live edge has been reached.
func (h *History) LoadedBottom() bool {
	return h.loadedBottom
}

// RequestOlder reserves the next older page. It returns the offset to request
// and advances the cursor by limit before any response arrives. ok is false
// when the full history is already loaded.
func (h *History) RequestOlder(limit int) (offset int, ok bool) {
	if h.complete {
		return 0, false
	}
	offset = h.offset
	h.offset += limit
	return offset, true
}

// AddPage prepends one page of history. Pages arrive oldest-first within the
// page, so the block is prepended wholesale to keep chronological ascending
// order. A short page marks the history complete.
func (h *History) AddPage(msgs []protocol.Message, limit int) {
	if len(msgs) < limit {
		h.complete = true
		h.loadedBottom = true
	}
	if len(msgs) == 0 {
		return
	}
	joined := make([]protocol.Message, 0, len(msgs)+len(h.msgs))
	joined = append(joined, msgs...)
	joined = append(joined, h.msgs...)
	h.msgs = joined
}

// AppendLive appends a message arriving on the real-time channel.
func (h *History) AppendLive(msg protocol.Message) {
	h.msgs = append(h.msgs, msg)
	h.loadedBottom = true
}

// Delete removes a message by id. Removing an id that is absent (a duplicate
// delete push) is a no-op.
func (h *History) Delete(msgID uint64) bool {
	for i := range h.msgs {
		if h.msgs[i].MsgID == msgID {
			h.msgs = append(h.msgs[:i], h.msgs[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the message list and resets the cursor. This is the only
// path that rewinds the offset.
func (h *History) Clear() {
	h.msgs = nil
	h.offset = 0
	h.complete = false
	h.loadedBottom = false
}
