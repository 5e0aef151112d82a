package stream

import (
	"os"
	"sync"
)

// ProcessSet tracks every external encoder process the engine has spawned so
// they can be killed as a group on shutdown. Workers Add the process right
// after starting it and Remove it after reaping; Shutdown kills whatever is
// left and refuses all later Adds, so no encoder can outlive the engine.
type ProcessSet struct {
	mu       sync.Mutex
	procs    map[int]*os.Process
	draining bool
}

func NewProcessSet() *ProcessSet {
	return &ProcessSet{procs: make(map[int]*os.Process)}
}

// Add registers a running process. Returns ErrShutdown once the set is
// draining; the caller must then kill the process itself.
func (s *ProcessSet) Add(p *os.Process) error {
	if p == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return ErrShutdown
	}
	s.procs[p.Pid] = p
	return nil
}

// Remove drops a process from the set, normally right after it has been
// reaped.
func (s *ProcessSet) Remove(p *os.Process) {
	if p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.procs, p.Pid)
}

func (s *ProcessSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

// Shutdown force kills every tracked process, empties the set and marks it
// draining. Kill is forceful rather than graceful: a half written segment is
// discarded anyway, and waiting out an encoder can take longer than the
// supervisor's own kill timeout. Returns how many processes were signalled.
func (s *ProcessSet) Shutdown() int {
	s.mu.Lock()
	s.draining = true
	procs := make([]*os.Process, 0, len(s.procs))
	for _, p := range s.procs {
		procs = append(procs, p)
	}
	s.procs = make(map[int]*os.Process)
	s.mu.Unlock()

	for _, p := range procs {
		// The worker that spawned the process still holds its exec.Cmd and
		// will reap it; Kill just makes sure it exits now.
		_ = p.Kill()
	}
	return len(procs)
}
