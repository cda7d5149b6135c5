package cssbuild

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

var (
	ErrToolNotFound = errors.New("css build tool not found")
	ErrBuildFailed  = errors.New("css build failed")
	ErrEmptyCommand = errors.New("css build command is empty")
)

// Builder produces the stylesheet bundle at output.
type Builder interface {
	Build(ctx context.Context, output string, minify bool) error
}

// CommandBuilder runs an external CSS tool such as the tailwind CLI.
// "{input}" and "{output}" in Argv are substituted; MinifyFlag is appended
// for production builds.
type CommandBuilder struct {
	Argv       []string
	Input      string
	MinifyFlag string
	Dir        string
}

// Args returns the argv for one build.
func (b *CommandBuilder) Args(output string, minify bool) []string {
	args := make([]string, 0, len(b.Argv)+1)
	r := strings.NewReplacer("{input}", b.Input, "{output}", output)
	for _, a := range b.Argv {
		args = append(args, r.Replace(a))
	}
	if minify && b.MinifyFlag != "" {
		args = append(args, b.MinifyFlag)
	}
	return args
}

func (b *CommandBuilder) Build(ctx context.Context, output string, minify bool) error {
	args := b.Args(output, minify)
	if len(args) == 0 {
		return ErrEmptyCommand
	}
	bin, err := exec.LookPath(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrToolNotFound, err)
	}

	// #nosec G204 -- argv comes from the site configuration
	cmd := exec.CommandContext(ctx, bin, args[1:]...)
	cmd.Dir = b.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Running CSS build", slog.String("command", strings.Join(args, " ")), slog.String("dir", b.Dir))

	err = cmd.Run()

	if out := stdout.String(); out != "" {
		slog.Debug("css tool stdout", slog.String("output", out))
	}
	errStr := stderr.String()
	if err != nil {
		if errStr != "" {
			return fmt.Errorf("%w: %w: %s", ErrBuildFailed, err, errStr)
		}
		return fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}
	if errStr != "" {
		// tailwind reports progress on stderr
		slog.Debug("css tool stderr", slog.String("output", errStr))
	}
	return nil
}
