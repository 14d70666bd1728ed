// Package sessions tracks live relay connections by device id. The tracker
// is the only shared mutable state between sessions: broadcast fan-out and
// shutdown draining both work through it.
package sessions

import (
	"context"
	"strings"
	"sync"
)

// SanitizeDeviceID canonicalizes a free-text device id into a registry key:
// surrounding whitespace is dropped and interior whitespace runs become "_".
func SanitizeDeviceID(raw string) string {
	return strings.Join(strings.Fields(raw), "_")
}

// Handle is the narrow surface a registered session exposes to the rest of
// the process. Deliver queues synthesized audio, Warn queues a plain-text
// notice, Cancel tears the session down.
type Handle struct {
	DeviceID string
	Cancel   func()
	Warn     func(message string) error
	Deliver  func(audio []byte) error
}

type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*trackedSession
	wg       sync.WaitGroup
}

type trackedSession struct {
	handle Handle
	once   sync.Once
}

func NewTracker() *Tracker {
	return &Tracker{
		sessions: make(map[string]*trackedSession),
	}
}

// Register claims the device id slot. A duplicate id is last-write-wins:
// the previous entry is evicted from the registry but its connection is
// not signaled, so it keeps running unreachable by broadcast. The returned
// closure deregisters this entry only; a replaced session cannot evict its
// replacement.
func (t *Tracker) Register(deviceID string, h Handle) (unregister func()) {
	if t == nil {
		return func() {}
	}

	h.DeviceID = deviceID
	entry := &trackedSession{handle: h}

	t.mu.Lock()
	if t.sessions == nil {
		t.sessions = make(map[string]*trackedSession)
	}
	old := t.sessions[deviceID]
	t.sessions[deviceID] = entry
	t.wg.Add(1)
	t.mu.Unlock()

	if old != nil {
		t.unregister(deviceID, old)
	}

	return func() { t.unregister(deviceID, entry) }
}

func (t *Tracker) unregister(deviceID string, entry *trackedSession) {
	if t == nil || entry == nil {
		return
	}
	entry.once.Do(func() {
		t.mu.Lock()
		if t.sessions != nil && t.sessions[deviceID] == entry {
			delete(t.sessions, deviceID)
		}
		t.mu.Unlock()
		t.wg.Done()
	})
}

func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Others snapshots every registered handle except the given device id.
// Callers send outside the tracker lock.
func (t *Tracker) Others(deviceID string) []Handle {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Handle, 0, len(t.sessions))
	for id, entry := range t.sessions {
		if id == deviceID || entry == nil {
			continue
		}
		out = append(out, entry.handle)
	}
	return out
}

func (t *Tracker) WarnAll(message string) (sent int) {
	if t == nil {
		return 0
	}

	var warns []func(message string) error
	t.mu.Lock()
	for _, entry := range t.sessions {
		if entry == nil || entry.handle.Warn == nil {
			continue
		}
		warns = append(warns, entry.handle.Warn)
	}
	t.mu.Unlock()

	for _, warn := range warns {
		_ = warn(message)
		sent++
	}
	return sent
}

func (t *Tracker) CancelAll() (canceled int) {
	if t == nil {
		return 0
	}

	var cancels []func()
	t.mu.Lock()
	for _, entry := range t.sessions {
		if entry == nil || entry.handle.Cancel == nil {
			continue
		}
		cancels = append(cancels, entry.handle.Cancel)
	}
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
		canceled++
	}
	return canceled
}

func (t *Tracker) Wait(ctx context.Context) bool {
	if t == nil {
		return true
	}
	if ctx == nil {
		t.wg.Wait()
		return true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
