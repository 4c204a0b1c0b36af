package apply

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// DefaultToolTimeout bounds a single external tool invocation.
const DefaultToolTimeout = 30 * time.Second

// ExecResult is the raw outcome of one external tool invocation.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Tool applies a diff to a working tree. Implementations are expected to be
// strict; resilient recovery is this package's job, not the tool's.
type Tool interface {
	Run(ctx context.Context, diff []byte, dir string, strip int, dryRun bool) (ExecResult, error)
}

// GitApply drives `git apply` as the external patch tool.
type GitApply struct {
	Binary  string
	Timeout time.Duration
}

// NewGitApply creates a GitApply runner. Empty binary defaults to "git";
// a non-positive timeout defaults to DefaultToolTimeout.
func NewGitApply(binary string, timeout time.Duration) *GitApply {
	if binary == "" {
		binary = "git"
	}
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return &GitApply{Binary: binary, Timeout: timeout}
}

// Run invokes `git apply -p<strip> [--check]` with the diff on stdin. The
// invocation is bounded by the configured timeout; an expired timer or
// cancelled context kills the whole process group and surfaces as a timeout
// error, the sole cancellation point of an apply call.
func (g *GitApply) Run(ctx context.Context, diff []byte, dir string, strip int, dryRun bool) (ExecResult, error) {
	args := []string{"apply", fmt.Sprintf("-p%d", strip), "--whitespace=nowarn"}
	if dryRun {
		args = append(args, "--check")
	}

	cmd := exec.Command(g.Binary, args...)
	cmd.Dir = dir
	cmd.Stdin = bytes.NewReader(diff)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// New process group so a timeout can kill git and any children.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return ExecResult{}, fmt.Errorf("start %s: %w", g.Binary, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(g.Timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		return ExecResult{ExitCode: -1, Stdout: stdout.String(), Stderr: stderr.String()},
			ToolTimeoutError(ctx.Err())
	case <-timer.C:
		killProcessGroup(cmd)
		<-done
		return ExecResult{ExitCode: -1, Stdout: stdout.String(), Stderr: stderr.String()},
			ToolTimeoutError(fmt.Errorf("no result after %s", g.Timeout))
	case err := <-done:
		exitCode := 0
		if err != nil {
			exitErr, ok := err.(*exec.ExitError)
			if !ok {
				return ExecResult{}, fmt.Errorf("run %s: %w", g.Binary, err)
			}
			exitCode = exitErr.ExitCode()
		}
		return ExecResult{ExitCode: exitCode, Stdout: stdout.String(), Stderr: stderr.String()}, nil
	}
}

// killProcessGroup kills the command's entire process group.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err == nil {
		syscall.Kill(-pgid, syscall.SIGKILL)
	} else {
		cmd.Process.Kill()
	}
}
