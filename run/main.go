package run

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ridge/chamber/tlog"
	"github.com/ridge/must/v2"
	"github.com/ridge/parallel"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var fs = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)

func init() {
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.String("log-format", "", "Log format (json|text)")
	fs.String("log-color", "", "Colored logs (yes|no|auto)")
	fs.BoolP("verbose", "v", false, "Enable verbose (debug level) messages")
	// usage is printed by the program's own flag parsing
	fs.Usage = func() {}

	pflag.CommandLine.AddFlagSet(fs)
}

// Tool runs the top-level task of a command line program.
//
// The task gets a context carrying the logger configured by the logging flags.
// The context is closed when an interruption or termination signal arrives.
//
// Tool does not return: it exits with code 0 if the task returns nil, with
// the code of a WithExitCode error, or with 1 for any other error. Deferred
// calls made before Tool never run.
//
//	func main() {
//	    pflag.Parse()
//	    run.Tool(func(ctx context.Context) error {
//	        return importFile(ctx, *file)
//	    })
//	}
func Tool(task func(ctx context.Context) error) {
	// os.Exit skips deferred calls, so it goes into the one that runs last
	var err error
	defer func() {
		var wec WithExitCode
		if errors.As(err, &wec) {
			os.Exit(wec.ExitCode())
		}
		if err != nil {
			os.Exit(1)
		}
	}()

	ctx := tlog.WithLogger(context.Background(), tlog.New(cliConfig()))
	err = parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("main", parallel.Exit, task)
		spawn("signals", parallel.Exit, handleSignals)
		return nil
	})
	if err != nil {
		tlog.Get(ctx).Error("Error", zap.Error(err))
	}
}

// WithExitCode is an optional interface of errors choosing the exit code of
// the process when they reach Tool
type WithExitCode interface {
	ExitCode() int
}

// ExitCodeError is an error carrying a process exit code
type ExitCodeError struct {
	Err  error
	Code int
}

func (e ExitCodeError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error
func (e ExitCodeError) Unwrap() error {
	return e.Err
}

// ExitCode implements WithExitCode
func (e ExitCodeError) ExitCode() int {
	return e.Code
}

func cliConfig() tlog.Config {
	if err := fs.Parse(os.Args[1:]); err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Println(err)
		os.Exit(2)
	}

	config := tlog.Config{Format: tlog.FormatText, Color: tlog.ColorAuto}
	if fs.Lookup("log-format").Changed {
		config.Format = tlog.Format(must.OK1(fs.GetString("log-format")))
	}
	if fs.Lookup("log-color").Changed {
		switch arg := must.OK1(fs.GetString("log-color")); arg {
		case "", "auto":
			config.Color = tlog.ColorAuto
		case "yes":
			config.Color = tlog.ColorYes
		case "no":
			config.Color = tlog.ColorNo
		default:
			panic(fmt.Sprintf("invalid --log-color value %q", arg))
		}
	}
	config.Verbose = must.OK1(fs.GetBool("verbose"))
	return config
}
