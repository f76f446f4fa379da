// Package syncclient is a polling client for the Circle sync API. There is no
// push channel: callers poll each stream on a fixed cadence and remember the
// highest id they have consumed.
package syncclient

import (
	"sync"
	"time"
)

// Recommended poll cadences. The server echoes its own values in every sync
// response; these apply until the first response arrives.
const (
	DefaultNotificationInterval = 10 * time.Second
	DefaultFeedInterval         = 30 * time.Second
	DefaultChatInterval         = 3 * time.Second
)

// Watermark is the highest id consumed from one stream. It only moves forward.
type Watermark struct {
	mu sync.Mutex
	id uint
}

// NewWatermark starts a watermark at id, usually one restored from storage.
func NewWatermark(id uint) *Watermark {
	return &Watermark{id: id}
}

// Value returns the current id.
func (w *Watermark) Value() uint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.id
}

// Advance moves the watermark to id if id is larger and reports whether it moved.
func (w *Watermark) Advance(id uint) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id <= w.id {
		return false
	}
	w.id = id
	return true
}

// Identified is any row that carries a strictly increasing primary key.
type Identified interface {
	GetID() uint
}

// MaxID returns the largest id in rows, or 0 for an empty batch.
func MaxID[T Identified](rows []T) uint {
	var maxID uint
	for _, r := range rows {
		if id := r.GetID(); id > maxID {
			maxID = id
		}
	}
	return maxID
}
