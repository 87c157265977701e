package vboxmanage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"

	"github.com/containers/libvbox/pkg/vboxmanage/config"
	"github.com/containers/libvbox/pkg/vboxmanage/define"
)

// Executor runs a single VBoxManage invocation. args is the full argument
// string as it would be typed on a shell, without the binary name. A non-zero
// exit from VBoxManage is data, not an error: it comes back in
// ExecResult.ExitCode with a nil error. The error return is reserved for
// failures to run the command at all.
type Executor interface {
	Exec(args string, cfg define.ExecConfig) (*define.ExecResult, error)
}

// commandRunner is the default Executor. The binary is resolved on every
// call so an installation appearing after process start is still found.
type commandRunner struct {
	cfg *config.Config
}

func (r *commandRunner) Exec(args string, cfg define.ExecConfig) (*define.ExecResult, error) {
	fields, err := shlex.Split(args)
	if err != nil {
		return nil, fmt.Errorf("splitting arguments %q: %w", args, err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = define.DefaultExecTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	binary := r.cfg.FindVBoxManage()
	logrus.Debugf("Running command: %s %s", binary, args)

	cmd := exec.CommandContext(ctx, binary, fields...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if !cfg.GUI {
		cmd.SysProcAttr = silentSysProcAttr()
	}

	err = cmd.Run()
	res := &define.ExecResult{
		Stdout: splitLines(&stdout),
		Stderr: stderr.String(),
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("running %s %s: %v: %w", binary, args, ctx.Err(), define.ErrQueryFailed)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, fmt.Errorf("running %s %s: %v: %w", binary, args, err, define.ErrQueryFailed)
	}
	return res, nil
}

func splitLines(buf *bytes.Buffer) []string {
	var lines []string
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
