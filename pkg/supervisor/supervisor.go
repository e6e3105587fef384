package supervisor

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rf-tools/rtlamr2mqtt/pkg/errors"
	"github.com/rf-tools/rtlamr2mqtt/pkg/logging"
	"github.com/rf-tools/rtlamr2mqtt/pkg/metrics"
	"github.com/rf-tools/rtlamr2mqtt/pkg/process"
)

// State represents the lifecycle state of a managed process
type State string

const (
	StateNotStarted  State = "not_started"
	StateRunning     State = "running"
	StateTerminating State = "terminating"
	StateExited      State = "exited"
)

// forceKillWait bounds the wait for process reaping after SIGKILL
const forceKillWait = 5 * time.Second

// ManagedProcess is an owned OS process handle with identity and lifecycle state
type ManagedProcess struct {
	id      string
	command string
	proc    *os.Process

	mu       sync.Mutex
	stdout   io.ReadCloser
	state    State
	exitCode int

	// closed once the process has been reaped
	done chan struct{}
}

func (p *ManagedProcess) ID() string {
	return p.id
}

func (p *ManagedProcess) CommandLine() string {
	return p.command
}

func (p *ManagedProcess) Pid() int {
	return p.proc.Pid
}

// Stdout returns the merged stdout+stderr stream of the process
func (p *ManagedProcess) Stdout() io.ReadCloser {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdout
}

func (p *ManagedProcess) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ExitCode returns the process exit code, valid once State() is StateExited
func (p *ManagedProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Done is closed once the process has exited and been reaped
func (p *ManagedProcess) Done() <-chan struct{} {
	return p.done
}

func (p *ManagedProcess) closeStdout() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stdout != nil {
		p.stdout.Close()
		p.stdout = nil
	}
}

// Supervisor owns zero or more external OS processes and provides
// start / terminate-with-timeout / force-kill semantics
type Supervisor struct {
	logger logging.Logger

	mu    sync.Mutex
	procs []*ManagedProcess
}

func NewSupervisor(logger logging.Logger) *Supervisor {
	return &Supervisor{
		logger: logger,
	}
}

// Processes returns a snapshot of all processes the supervisor owns
func (s *Supervisor) Processes() []*ManagedProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]*ManagedProcess, len(s.procs))
	copy(snapshot, s.procs)
	return snapshot
}

// Start launches the external binary and takes ownership of the resulting process
func (s *Supervisor) Start(ctx context.Context, id string, execution process.ExecutionConfig) (*ManagedProcess, error) {
	proc, stdout, err := process.Execute(ctx, execution, id, s.logger)
	if err != nil {
		return nil, errors.NewProcessError("failed to launch process", err).WithContext("id", id)
	}

	managed := &ManagedProcess{
		id:       id,
		command:  execution.CommandLine(),
		proc:     proc,
		stdout:   stdout,
		state:    StateRunning,
		exitCode: -1,
		done:     make(chan struct{}),
	}

	metrics.IncProcessesStarted()

	go s.reap(managed)

	s.mu.Lock()
	s.procs = append(s.procs, managed)
	s.mu.Unlock()

	return managed, nil
}

// reap waits for process exit and records the observed exit code
func (s *Supervisor) reap(p *ManagedProcess) {
	state, err := p.proc.Wait()

	code := -1
	if state != nil {
		code = state.ExitCode()
	}

	p.mu.Lock()
	p.state = StateExited
	p.exitCode = code
	p.mu.Unlock()

	close(p.done)

	if err != nil {
		s.logger.Warnf("Process wait failed, id: %s, PID: %d, error: %v", p.id, p.proc.Pid, err)
	} else {
		s.logger.Infof("Process exited, id: %s, PID: %d, code: %d", p.id, p.proc.Pid, code)
	}
}

// Stop requests cooperative termination, waits up to grace for voluntary exit
// and forcibly kills the process if it is still running afterwards. Calling
// Stop on a nil, never-started or already-exited process is a no-op. Stop
// never blocks beyond grace plus a small constant.
func (s *Supervisor) Stop(ctx context.Context, p *ManagedProcess, grace time.Duration) error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	switch p.state {
	case StateNotStarted, StateExited:
		p.mu.Unlock()
		return nil
	case StateTerminating:
		// Another Stop already owns the teardown, wait for it within the bound
		p.mu.Unlock()
		select {
		case <-p.done:
			return nil
		case <-time.After(grace + forceKillWait):
			return errors.NewTimeoutError("concurrent stop did not complete", nil).WithContext("id", p.id)
		}
	}
	p.state = StateTerminating
	pid := p.proc.Pid
	p.mu.Unlock()

	s.logger.Infof("Stopping process, id: %s, PID: %d, grace: %v", p.id, pid, grace)

	if err := process.SendTerminationSignal(pid); err != nil {
		s.logger.Warnf("Failed to send termination signal, id: %s, PID: %d, error: %v", p.id, pid, err)
	}

	select {
	case <-p.done:
		s.logger.Infof("Process terminated gracefully, id: %s, PID: %d", p.id, pid)
		p.closeStdout()
		return nil
	case <-time.After(grace):
		s.logger.Warnf("Process did not terminate within %v, force killing, id: %s, PID: %d", grace, p.id, pid)
	case <-ctx.Done():
		s.logger.Warnf("Context cancelled during graceful termination, force killing, id: %s, PID: %d", p.id, pid)
	}

	metrics.IncProcessesKilled()

	if err := p.proc.Kill(); err != nil {
		p.closeStdout()
		return errors.NewProcessError("failed to kill process", err).WithContext("id", p.id).WithContext("pid", pid)
	}

	select {
	case <-p.done:
		s.logger.Infof("Process force terminated, id: %s, PID: %d", p.id, pid)
		p.closeStdout()
		return nil
	case <-time.After(forceKillWait):
		p.closeStdout()
		return errors.NewTimeoutError("process did not exit even after force termination", nil).WithContext("id", p.id).WithContext("pid", pid)
	}
}

// StopAll stops every owned process. A failure to stop one process does not
// prevent the remaining processes from being stopped.
func (s *Supervisor) StopAll(ctx context.Context, grace time.Duration) error {
	collection := errors.NewErrorCollection()
	for _, p := range s.Processes() {
		if err := s.Stop(ctx, p, grace); err != nil {
			s.logger.Errorf("Failed to stop process, id: %s, error: %v", p.ID(), err)
			collection.Add(err)
		}
	}
	return collection.ToError()
}
