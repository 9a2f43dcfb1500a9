// Package cmd wires the cobra CLI surface onto internal/options and, for
// the normal run path, onto the controller/eventloop/ptyhost program
// lifecycle. Grounded on the teacher's internal/cmd/root.go command-tree
// shape, collapsed to a single root command since tachyon has no
// subcommands (attach/daemon/qa/etc. are h2-specific, not part of this
// multiplexer).
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"tachyon/internal/controller"
	"tachyon/internal/eventloop"
	"tachyon/internal/logging"
	"tachyon/internal/options"
	"tachyon/internal/ptyhost"
	"tachyon/internal/tachyonsession"
	"tachyon/internal/version"
)

// NewRootCmd builds the root command. Exit codes follow spec §6: 0 on a
// clean run or on --hello, non-zero (cobra's default) on a flag error.
func NewRootCmd() *cobra.Command {
	opts := options.Default()

	root := &cobra.Command{
		Use:          "tachyon",
		Short:        "A terminal multiplexer",
		Long:         "tachyon runs one or more shells behind a single PTY-multiplexing controller, with a metakey prefix to switch buffers.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Hello {
				printHello(cmd.OutOrStdout())
				return nil
			}
			return run(opts)
		},
	}
	root.AddCommand(newVersionCmd())

	flags := root.Flags()
	flags.BoolVarP(&opts.Hello, "hello", "H", false, "print version banner and exit")
	flags.BoolVarP(&opts.Predict, "predict", "p", false, "enable the local-echo predictor")
	flags.StringVarP(&opts.Shell, "shell", "s", opts.Shell, "command to run for new buffers")
	flags.CountVarP(&opts.Verbose, "verbose", "v", "increase log verbosity (repeatable)")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "log errors only")

	return root
}

func printHello(w io.Writer) {
	out := termenv.NewOutput(w)
	banner := out.String(fmt.Sprintf("tachyon %s", version.Version)).Bold()
	fmt.Fprintln(w, banner)
}

// run implements the program's main lifecycle: save the controller TTY's
// termios, put it into the multiplexer's restricted raw mode, build the
// event loop and controller, run until either stops, then restore the TTY
// on the way out — mirroring main()'s
// tty_save_termstate/tty_configure_control_tty/loop_run/tty_restore_termstate
// sequence in the original.
func run(opts options.Options) error {
	sessionName := tachyonsession.Name()
	log := logging.NewSession(sessionName, opts.LogLevel())

	lock, err := tachyonsession.Acquire(logging.RuntimeDir(), sessionName)
	if err != nil {
		return err
	}
	defer lock.Release()

	tty := ptyhost.Open(os.Stdin)
	if err := tty.SaveState(); err != nil {
		return err
	}
	defer tty.RestoreState()

	if err := tty.ConfigureControlTTY(); err != nil {
		return err
	}

	loop, err := eventloop.New()
	if err != nil {
		return err
	}
	defer loop.Close()

	ctrl := controller.New(loop, tty, opts.Shell, sessionName, opts.Predict, log, opts.Keys)
	if err := ctrl.Init(); err != nil {
		return err
	}

	for loop.Running() && ctrl.Running() {
		if !loop.RunOnce() {
			break
		}
	}

	return nil
}
