// SPDX-License-Identifier: EPL-2.0

// Command audpreload decodes a list of sounds through the load queue and
// shows the progress, which is a quick way to check an asset directory.
//
//	audpreload -dir ./sounds/ -ext .wav jump coin hit
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/ik5/audcache"
	"github.com/ik5/audcache/backend/headless"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the whole command. It returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("audpreload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configFile = fs.String("config", "", "YAML config file")
		dir        = fs.String("dir", "", "Sound directory (overrides the config)")
		ext        = fs.String("ext", "", "Sound file extension including the dot (overrides the config)")
		rate       = fs.Int("rate", 0, "Resample to this sample rate (0 keeps the source rate)")
		mono       = fs.Bool("mono", false, "Down-mix to mono")
		jobs       = fs.Int("jobs", 0, "Concurrent decodes (0 uses the CPU count)")
		plain      = fs.Bool("plain", false, "Print progress lines instead of the TUI")
		verbose    = fs.Bool("v", false, "Log to stderr (implies -plain)")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "Usage: audpreload [-config file] [-dir d] [-ext e] name...")
		return 2
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := buildConfig(*configFile, *dir, *ext, set)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := zap.NewNop()
	if *verbose {
		*plain = true
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	defer logger.Sync()

	engOpts := []headless.Option{
		headless.WithSampleRate(*rate),
		headless.WithMono(*mono),
		headless.WithLogger(logger),
	}
	if *jobs > 0 {
		engOpts = append(engOpts, headless.WithMaxConcurrent(*jobs))
	}
	c := audcache.New(headless.New(engOpts...),
		audcache.WithConfig(cfg),
		audcache.WithLogger(logger),
	)
	defer c.Close()

	for _, name := range fs.Args() {
		c.Enqueue(name)
	}

	var failed int
	if *plain {
		failed = runPlain(c, stdout, stderr)
	} else {
		failed, err = runTUI(c, fs.NArg())
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}

// buildConfig loads the config file, if any, and applies the flags that
// were set on the command line.
func buildConfig(path, dir, ext string, set map[string]bool) (audcache.Config, error) {
	cfg := audcache.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = audcache.LoadConfig(path); err != nil {
			return audcache.Config{}, err
		}
	}
	if set["dir"] {
		cfg.Directory = dir
	}
	if set["ext"] {
		cfg.Extension = ext
	}
	return cfg, cfg.Validate()
}

func runPlain(c *audcache.Cache, stdout, stderr io.Writer) int {
	done := make(chan struct{})
	failed := 0

	c.SetStatusCallback(func(p float64) {
		fmt.Fprintf(stdout, "%3.0f%%\n", p*100)
	})
	c.SetQueueErrorCallback(func(sourceID string, err error) {
		failed++
		fmt.Fprintf(stderr, "failed: %s: %v\n", sourceID, err)
	})
	c.SetQueueCallback(func() { close(done) })

	c.LoadQueue()
	<-done

	s := c.Stats()
	fmt.Fprintf(stdout, "loaded %d of %d\n", s.Loaded, s.Total)
	return failed
}

func runTUI(c *audcache.Cache, total int) (int, error) {
	m := newModel(c, total)
	p := tea.NewProgram(m)

	c.SetStatusCallback(func(v float64) { p.Send(statusMsg(v)) })
	c.SetQueueErrorCallback(func(sourceID string, err error) {
		p.Send(failedMsg{source: sourceID, err: err})
	})
	c.SetQueueCallback(func() { p.Send(doneMsg{}) })

	final, err := p.Run()
	if err != nil {
		return 0, err
	}
	return len(final.(*model).failures), nil
}
