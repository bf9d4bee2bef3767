package wpa

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Process is a long-running daemon started by a Runner.
type Process interface {
	// Stop terminates the process and waits for it to exit.
	Stop() error

	// Running reports whether the process has not exited yet.
	Running() bool
}

// Runner executes system commands.
type Runner interface {
	// Run executes a command to completion and returns its stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// Start launches a daemon that runs until stopped.
	Start(name string, args ...string) (Process, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. Stderr is included in the error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Start launches name with args in the background.
func (ExecRunner) Start(name string, args ...string) (Process, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error

	once sync.Once
}

func (p *execProcess) Stop() error {
	p.once.Do(func() {
		if p.Running() {
			_ = p.cmd.Process.Kill()
		}
	})
	<-p.done
	return nil
}

func (p *execProcess) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

var _ Runner = ExecRunner{}
