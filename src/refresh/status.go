package refresh

import (
	"sync"
	"time"
)

// Notice is one user-visible message.
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// StatusSnapshot is what the page polls: spinner visibility and recent notices.
type StatusSnapshot struct {
	Loading bool     `json:"loading"`
	Notices []Notice `json:"notices"`
}

// maxNotices bounds the notice history kept by Status.
const maxNotices = 20

// Status records spinner state and notices for a headless page. It implements
// Spinner and Notifier.
type Status struct {
	mu      sync.Mutex
	loading bool
	notices []Notice
}

// NewStatus returns an idle status.
func NewStatus() *Status { return &Status{} }

func (s *Status) Show() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
}

func (s *Status) Hide() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Status) Warn(msg string) { s.add("warning", msg) }
func (s *Status) Fail(msg string) { s.add("error", msg) }

func (s *Status) add(level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, Notice{Level: level, Message: msg, At: time.Now()})
	if len(s.notices) > maxNotices {
		s.notices = append([]Notice(nil), s.notices[len(s.notices)-maxNotices:]...)
	}
}

// Snapshot copies the current status, newest notice last.
func (s *Status) Snapshot() StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatusSnapshot{Loading: s.loading, Notices: append([]Notice(nil), s.notices...)}
}
