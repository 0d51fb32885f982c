package body

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/zerr"
)

// KindCommand runs an external program as the task body.
const KindCommand = "command"

var errCommandFailed = zerr.New("command failed")

// newCommand runs args["command"] once per cycle. The snapshot is written to its stdin
// as a JSON array and the output vector is read from stdout the same way.
// args["env"] overrides variables of the inherited environment and args["dir"] sets the working directory.
func newCommand(_ domain.Task, args map[string]any) (ports.TaskBody, error) {
	argv, err := commandLine(args["command"])
	if err != nil {
		return nil, err
	}

	env, err := commandEnv(args["env"])
	if err != nil {
		return nil, err
	}

	dir, _ := args["dir"].(string)

	return Func(func(ctx context.Context, in []domain.Value) ([]domain.Value, error) {
		stdin, err := json.Marshal(in)
		if err != nil {
			return nil, zerr.Wrap(err, "failed to encode snapshot")
		}

		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // configured command
		cmd.Dir = dir
		cmd.Env = env
		cmd.Stdin = bytes.NewReader(stdin)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			exitCode := -1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
			}
			failed := zerr.With(errCommandFailed, "exit_code", exitCode)
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				failed = zerr.With(failed, "stderr", msg)
			}
			return nil, zerr.With(failed, "command", argv[0])
		}

		var out []domain.Value
		if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to decode command output"), "command", argv[0])
		}
		return out, nil
	}), nil
}

func commandLine(raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		if v != "" {
			return []string{v}, nil
		}
	case []string:
		if len(v) > 0 {
			return slices.Clone(v), nil
		}
	case []any:
		argv := make([]string, 0, len(v))
		for _, a := range v {
			s, ok := a.(string)
			if !ok {
				return nil, zerr.With(domain.ErrInvalidBodyArgs, "arg", "command")
			}
			argv = append(argv, s)
		}
		if len(argv) > 0 {
			return argv, nil
		}
	}
	return nil, zerr.With(domain.ErrInvalidBodyArgs, "arg", "command")
}

// commandEnv merges overrides onto the process environment. A nil result keeps the inherited one.
func commandEnv(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	overrides, ok := raw.(map[string]any)
	if !ok {
		return nil, zerr.With(domain.ErrInvalidBodyArgs, "arg", "env")
	}

	env := make(map[string]string)
	for _, entry := range os.Environ() {
		if k, v, ok := strings.Cut(entry, "="); ok {
			env[k] = v
		}
	}
	for k, v := range overrides {
		env[k] = fmt.Sprint(v)
	}

	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result, nil
}
