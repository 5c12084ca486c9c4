// Command mirrorctl mirrors a remote game-asset CDN's published manifests
// and blobs to a local directory tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cdnmirror/mirrorctl/api"
	"github.com/cdnmirror/mirrorctl/cmd/internal/cmdhelper"
	"github.com/cdnmirror/mirrorctl/internal/logging"
	"github.com/cdnmirror/mirrorctl/pipeline"
	"github.com/cdnmirror/mirrorctl/progress"
	"github.com/cdnmirror/mirrorctl/selection"
)

const usage = `Usage: mirrorctl [FLAGS...]

Mirrors published manifests and asset blobs from a remote CDN to a local
directory tree.`

func main() {
	if level, ok := os.LookupEnv(api.LogLevelEnv); ok {
		logging.SetLevel(logging.FromString(level))
	}

	flagSet := flag.NewFlagSet("mirrorctl", flag.ExitOnError)
	flagSet.Usage = func() {
		fmt.Fprintln(flagSet.Output(), usage)
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	opts, err := cmdhelper.Parse(os.Args[1:], flagSet)
	if err != nil {
		cmdhelper.FatalFmt("%v", err)
	}
	logLevelFlagSet := false
	flagSet.Visit(func(f *flag.Flag) {
		if f.Name == "log-level" {
			logLevelFlagSet = true
		}
	})
	if _, envSet := os.LookupEnv(api.LogLevelEnv); !envSet || logLevelFlagSet {
		logging.SetLevel(logging.FromString(opts.LogLevel))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var chooser selection.Chooser = selection.SurveyChooser{}
	sink := progress.Sink(progress.NewTerminal())

	result, err := pipeline.Run(ctx, opts, chooser, sink)
	if err != nil {
		if ctx.Err() != nil {
			logging.Errorf("interrupted")
			os.Exit(1)
		}
		cmdhelper.FatalFmt("%v", err)
	}
	logging.Basicf("mirrored %d version(s)", len(result.ProcessedVersions))
}
