// Package picker provides native file selection dialogs.
package picker

import (
	"context"
	"os/exec"
	"strings"

	"github.com/GiGurra/cmder"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Config holds picker configuration.
type Config struct {
	Command  string // zenity-compatible dialog binary
	StartDir string
}

// separator splits multiple selections in zenity output.
const separator = "|"

// Zenity opens GTK file dialogs through a zenity-compatible binary.
// A cancelled dialog yields no selection and no error.
type Zenity struct {
	config Config
}

// NewZenity creates a new picker.
func NewZenity(cfg Config) *Zenity {
	if cfg.Command == "" {
		cfg.Command = "zenity"
	}
	return &Zenity{config: cfg}
}

// PickOne asks for a single file.
func (z *Zenity) PickOne(ctx context.Context) (string, bool, error) {
	paths, err := z.run(ctx, z.args("Open a track"))
	if err != nil || len(paths) == 0 {
		return "", false, err
	}
	return paths[0], true, nil
}

// PickMany asks for one or more files.
func (z *Zenity) PickMany(ctx context.Context) ([]string, error) {
	return z.run(ctx, z.args("Add tracks to the queue", "--multiple", "--separator="+separator))
}

// PickFolder asks for a directory.
func (z *Zenity) PickFolder(ctx context.Context) (string, bool, error) {
	paths, err := z.run(ctx, z.args("Add a folder to the queue", "--directory"))
	if err != nil || len(paths) == 0 {
		return "", false, err
	}
	return paths[0], true, nil
}

func (z *Zenity) args(title string, extra ...string) []string {
	args := []string{z.config.Command, "--file-selection", "--title=" + title}
	if z.config.StartDir != "" {
		args = append(args, "--filename="+strings.TrimSuffix(z.config.StartDir, "/")+"/")
	}
	return append(args, extra...)
}

func (z *Zenity) run(ctx context.Context, args []string) ([]string, error) {
	if _, err := exec.LookPath(z.config.Command); err != nil {
		return nil, errors.Wrapf(err, "file picker not found: %s", z.config.Command)
	}

	result := cmder.New(args...).Run(ctx)
	if result.Err != nil {
		// zenity exits non-zero on cancel without printing a selection
		if strings.TrimSpace(result.StdOut) == "" {
			zlog.Debug().Msgf("picker: dialog cancelled: %v", result.Err)
			return nil, nil
		}
		return nil, errors.Wrapf(result.Err, "file picker failed: %s", strings.TrimSpace(result.Combined))
	}

	return parseSelection(result.StdOut), nil
}

// parseSelection splits zenity output into paths.
func parseSelection(out string) []string {
	return lo.FilterMap(strings.Split(strings.TrimSpace(out), separator), func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
}
