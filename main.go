package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	box "github.com/Delta456/box-cli-maker/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/jessevdk/go-flags"
	"github.com/koblas/fsglob/pkg/backend"
	"github.com/koblas/fsglob/pkg/glob"
	"github.com/koblas/fsglob/pkg/handler"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func loadConfig(path *string) (handler.Configuration, error) {
	if path != nil {
		return handler.LoadConfiguration(*path)
	}
	return handler.LoadConfiguration(handler.DefaultConfigFile)
}

func listenAddr(value string) string {
	if strings.Contains(value, ":") {
		return value
	}
	return ":" + value
}

func main() {
	var opts struct {
		Version       bool     `short:"v" long:"version" description:"Display the current version"`
		Recursive     *bool    `short:"r" long:"recursive" description:"Let ** match any number of directories"`
		Walk          bool     `short:"w" long:"walk" description:"Walk each argument instead of globbing it"`
		Listen        []string `short:"l" long:"listen" description:"Serve glob and walk requests over HTTP on this address, more than one may be given"`
		Debug         *bool    `short:"d" long:"debug" description:"Shows debugging information"`
		NoCompression *bool    `short:"u" long:"no-compression" description:"Disable compression of HTTP answers"`
		Config        *string  `short:"c" long:"config" description:"Specify custom path to 'fsglob.json'"`
		Args          struct {
			Patterns []string `positional-arg-name:"PATTERN"`
		} `positional-args:"yes"`
	}

	if _, err := flags.Parse(&opts); err != nil {
		if !flags.WroteHelp(err) {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if opts.Version {
		fmt.Printf("0.1.0\n")
		os.Exit(0)
	}

	config, err := loadConfig(opts.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if opts.Recursive != nil {
		config.Recursive = *opts.Recursive
	}
	if opts.Debug != nil {
		config.Debug = *opts.Debug
	}
	if opts.NoCompression != nil {
		config.NoCompression = *opts.NoCompression
	}
	config.Listen = opts.Listen

	logger := handler.NewLogger(config.Debug)

	fs, closer, err := handler.OpenBackend(config.Backend)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open backend", "type", config.Backend.Type, "err", err)
		os.Exit(1)
	}

	// exit releases the backend session before leaving.
	exit := func(status int) {
		if closeBackend(closer, config.Backend.Type, logger) != nil && status == 0 {
			status = 1
		}
		os.Exit(status)
	}

	if len(config.Listen) != 0 {
		exit(serve(config, fs, logger))
	}

	if len(opts.Args.Patterns) == 0 {
		fmt.Fprintln(os.Stderr, "fsglob: at least one PATTERN is required")
		exit(1)
	}

	status := 0
	for _, arg := range opts.Args.Patterns {
		if opts.Walk {
			err = printWalk(arg, fs)
		} else {
			err = printGlob(arg, fs, glob.Options{Recursive: config.Recursive, Logger: logger})
		}
		if err != nil {
			level.Error(logger).Log("msg", "failed", "arg", arg, "err", err)
			status = 1
		}
	}

	exit(status)
}

func closeBackend(closer io.Closer, name string, logger log.Logger) error {
	err := closer.Close()
	if err != nil {
		level.Error(logger).Log("msg", "failed to close backend", "type", name, "err", err)
	}
	return err
}

func printGlob(pattern string, fs backend.FileSystem, options glob.Options) error {
	seq, err := glob.IGlob(pattern, fs, options)
	if err != nil {
		return err
	}
	for match, err := range seq {
		if err != nil {
			return err
		}
		fmt.Println(match)
	}
	return nil
}

func printWalk(root string, fs backend.FileSystem) error {
	for entry, err := range glob.Walk(root, fs) {
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\t%s\n", entry.Dir, strings.Join(entry.Dirs, ","), strings.Join(entry.Files, ","))
	}
	return nil
}

// serve runs the HTTP listeners until one of them fails and returns the exit
// status.
func serve(config handler.Configuration, fs backend.FileSystem, logger log.Logger) int {
	h, err := handler.NewHandler(config, fs, prometheus.NewRegistry())
	if err != nil {
		level.Error(logger).Log("msg", "failed to build handler", "err", err)
		return 1
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	if !config.NoCompression {
		router.Use(middleware.Compress(5))
	}
	h.AttachRoutes(router)

	bx := box.New(box.Config{Px: 4, Py: 1})
	lines := []string{}
	for _, item := range config.Listen {
		lines = append(lines, fmt.Sprintf("- Local:       http://localhost%s", listenAddr(item)))
	}
	lines = append(lines, fmt.Sprintf("- Backend:     %s", config.Backend.Type))
	bx.Println("Serving!", strings.Join(lines, "\n"))

	errs := make(chan error, len(config.Listen))
	for _, item := range config.Listen {
		server := &http.Server{
			Addr:    listenAddr(item),
			Handler: router,
		}
		go func() {
			errs <- server.ListenAndServe()
		}()
	}

	level.Error(logger).Log("msg", "server stopped", "err", <-errs)
	return 1
}
