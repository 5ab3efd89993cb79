package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/shelf-storage/shelf/internal/logger"
	"github.com/shelf-storage/shelf/pkg/config"
	"github.com/shelf-storage/shelf/pkg/item"
	"github.com/shelf-storage/shelf/pkg/metrics"
	"github.com/shelf-storage/shelf/pkg/registry"
	"github.com/shelf-storage/shelf/pkg/store"
)

const usage = `shelf - pluggable key/item storage

Usage:
  shelf [flags] <command> [args]

Commands:
  get <key>         fetch the item under key, creating it if absent
  peek <key>        fetch the item under key, failing if absent
  put <key> [json]  store an item (JSON from the argument or stdin)
  delete <key>      remove the item under key (succeeds if absent)
  size [key]        byte size of one item, or of the whole store without a key
  keys              list every key in the store
  flush             flush pending writes to the backing medium
  stores            list configured store names
  serve             run as a storage node host (metrics endpoint, until signalled)
  init              write a default config file and exit

Flags:
`

func main() {
	configPath := flag.String("config", "", "path to config file (default: $XDG_CONFIG_HOME/shelf/config.yaml)")
	storeName := flag.String("store", "", "store to operate on (default: the configured default_store)")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	force := flag.Bool("force", false, "overwrite an existing config file (init only)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// init runs before any config is loaded since its whole point is to
	// create the file the other commands read.
	if flag.Arg(0) == "init" {
		if err := runInit(*configPath, *force); err != nil {
			fmt.Fprintf(os.Stderr, "shelf: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shelf: %v\n", err)
		os.Exit(1)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsServer := config.InitializeMetrics(cfg)

	reg, err := config.InitializeRegistry(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize stores")
		os.Exit(1)
	}
	defer func() {
		if err := reg.CloseAll(); err != nil {
			log.Error().Err(err).Msg("failed to close stores")
		}
	}()

	if err := reg.OpenAll(ctx); err != nil {
		log.Error().Err(err).Msg("failed to open stores")
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	if err := run(ctx, cfg, reg, metricsServer, *storeName, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "shelf: %v\n", err)
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	cfg *config.Config,
	reg *registry.Registry,
	metricsServer *metrics.Server,
	storeName, command string,
	args []string,
) error {
	switch command {
	case "stores":
		for _, name := range reg.Names() {
			marker := " "
			if name == cfg.DefaultStore {
				marker = "*"
			}
			fmt.Printf("%s %s (%s)\n", marker, name, cfg.Stores[name].Type)
		}
		return nil

	case "serve":
		return serve(ctx, reg, metricsServer)
	}

	if storeName == "" {
		storeName = cfg.DefaultStore
	}
	st, err := reg.Get(storeName)
	if err != nil {
		return err
	}

	switch command {
	case "get":
		return runFetch(ctx, args, st.Get)
	case "peek":
		return runFetch(ctx, args, st.Peek)
	case "put":
		return runPut(ctx, st, args)
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: shelf delete <key>")
		}
		return st.Delete(ctx, args[0])
	case "size":
		return runSize(ctx, st, args)
	case "keys":
		return runKeys(ctx, st)
	case "flush":
		return st.Flush(ctx)
	default:
		return fmt.Errorf("unknown command %q (run 'shelf' for usage)", command)
	}
}

func runInit(configPath string, force bool) error {
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}
	if err := config.InitConfigToPath(configPath, force); err != nil {
		return err
	}
	fmt.Printf("wrote default config to %s\n", configPath)
	return nil
}

func runFetch(ctx context.Context, args []string, fetch func(context.Context, string) (item.Item, error)) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: shelf get|peek <key>")
	}

	it, err := fetch(ctx, args[0])
	if err != nil {
		return err
	}
	return printItem(it)
}

func runPut(ctx context.Context, st store.Store, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: shelf put <key> [json]")
	}

	var data []byte
	if len(args) == 2 {
		data = []byte(args[1])
	} else {
		var err error
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read item from stdin: %w", err)
		}
	}

	it, err := item.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("invalid item JSON: %w", err)
	}
	return st.Put(ctx, args[0], it)
}

func runSize(ctx context.Context, st store.Store, args []string) error {
	var (
		n   uint64
		err error
	)
	switch len(args) {
	case 0:
		n, err = st.TotalSize(ctx)
	case 1:
		n, err = st.Size(ctx, args[0])
	default:
		return fmt.Errorf("usage: shelf size [key]")
	}
	if err != nil {
		return err
	}

	fmt.Println(n)
	return nil
}

func runKeys(ctx context.Context, st store.Store) error {
	iter, err := st.Keys(ctx)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.Next() {
		fmt.Println(iter.Key())
	}
	return iter.Err()
}

// serve keeps the stores open until a shutdown signal arrives, flushing them
// on the way out. With metrics enabled the Prometheus endpoint runs for the
// whole lifetime.
func serve(ctx context.Context, reg *registry.Registry, metricsServer *metrics.Server) error {
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	log.Info().Strs("stores", reg.Names()).Msg("shelf node running, press Ctrl+C to stop")
	<-ctx.Done()

	log.Info().Msg("shutdown signal received, flushing stores")
	flushCtx := context.Background()
	if err := reg.FlushAll(flushCtx); err != nil {
		return err
	}
	return nil
}

func printItem(it item.Item) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(it)
}
