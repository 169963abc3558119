package services

import (
	"sync"
	"time"
)

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message for the operator.
type Notice struct {
	ID    uint64      `json:"id"`
	Level NoticeLevel `json:"level"`
	Kind  string      `json:"kind,omitempty"`
	Text  string      `json:"text"`
	At    time.Time   `json:"at"`
}

// Notices is a bounded queue; the oldest notice is dropped when full.
type Notices struct {
	mu    sync.Mutex
	seq   uint64
	max   int
	items []Notice
	now   func() time.Time
}

func NewNotices(max int) *Notices {
	if max <= 0 {
		max = 50
	}
	return &Notices{max: max, now: time.Now}
}

func (n *Notices) Push(level NoticeLevel, kind, text string) Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	notice := Notice{ID: n.seq, Level: level, Kind: kind, Text: text, At: n.now()}
	n.items = append(n.items, notice)
	if len(n.items) > n.max {
		n.items = n.items[len(n.items)-n.max:]
	}
	return notice
}

// Drain returns the queued notices and empties the queue.
func (n *Notices) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.items
	n.items = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}
