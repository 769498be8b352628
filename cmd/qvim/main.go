package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kobzarvs/qvim/internal/app"
	"github.com/kobzarvs/qvim/internal/logger"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.Keys, "keys", "", "apply a key-notation script without a terminal and print the result")
	flag.BoolVar(&opts.Write, "w", false, "with -keys, save the changed buffers instead of printing")
	flag.BoolVar(&opts.Debug, "debug", false, "log at debug level")
	flag.BoolVar(&opts.NoSession, "no-session", false, "do not restore or save the session")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: qvim [flags] [file...]")
		flag.PrintDefaults()
	}
	flag.Parse()
	opts.Files = flag.Args()

	a := app.New(opts)
	var err error
	if opts.Keys != "" {
		if opts.Debug {
			logger.InitWriter(os.Stderr, true)
		}
		err = a.Headless(os.Stdout)
	} else {
		err = a.Run()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "qvim:", err)
		os.Exit(1)
	}
}
