package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/marketcart"
	"github.com/bft-labs/marketcart/internal/cliconfig"
	"github.com/bft-labs/marketcart/pkg/cart"
	"github.com/bft-labs/marketcart/pkg/log"
)

const longHelp = `Inspect and edit the shopping cart of a storefront client.

The cart is an ordered list of products with quantities, stored as a JSON
array under a single key. Every change rewrites the whole list.

Storage backends:
  - file    one JSON file per key under --storage-dir (default ~/.marketcart)
  - sqlite  key-value table in --sqlite-path (default <storage-dir>/cart.db)
  - redis   GET/SET on --redis-addr, behind a circuit breaker
  - memory  process-local, for trying things out`

var exampleUsage = strings.TrimSpace(`
  marketcart add --id 42 --title "Coffee mug" --image-url https://cdn/mug.png --price 12.5
  marketcart increment 42
  marketcart list --json
  marketcart watch --storage-dir ~/.marketcart
`)

// watchAnnotation marks commands that need the storage watcher running.
const watchAnnotation = "marketcart/watch"

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries the resolved configuration and the open store between the
// root command and its subcommands.
type app struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  *log.ZerologAdapter
	store   *cart.Store
}

func main() {
	a := &app{cfg: cliconfig.DefaultConfig()}
	root := newRootCommand(a)

	if err := root.Execute(); err != nil {
		logger := a.logger
		if logger == nil {
			logger = cliconfig.Logger("info")
		}
		logger.Error("marketcart", log.Err(err))
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "marketcart",
		Short:         "Inspect and edit a storefront shopping cart",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return nil
			}
			return a.store.Close(cmd.Context())
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.marketcart/config.toml)")
	f.StringVar(&a.cfg.Storage, "storage", a.cfg.Storage, "storage backend: file, sqlite, redis or memory")
	f.StringVar(&a.cfg.StorageDir, "storage-dir", a.cfg.StorageDir, "directory of the file backend (default: $HOME/.marketcart)")
	f.StringVar(&a.cfg.SQLitePath, "sqlite-path", a.cfg.SQLitePath, "database file of the sqlite backend")
	f.StringVar(&a.cfg.RedisAddr, "redis-addr", a.cfg.RedisAddr, "address of the redis backend")
	f.StringVar(&a.cfg.RedisPassword, "redis-password", a.cfg.RedisPassword, "password of the redis backend")
	f.IntVar(&a.cfg.RedisDB, "redis-db", a.cfg.RedisDB, "database index of the redis backend")
	f.StringVar(&a.cfg.RedisKeyPrefix, "redis-prefix", a.cfg.RedisKeyPrefix, "prefix prepended to redis keys")
	f.DurationVar(&a.cfg.RedisTTL, "redis-ttl", a.cfg.RedisTTL, "expiry of the stored cart in redis (0 keeps it)")
	f.StringVar(&a.cfg.Key, "key", a.cfg.Key, "storage key of the cart")
	f.BoolVar(&a.cfg.Strict, "strict", a.cfg.Strict, "fail changes that cannot be persisted instead of keeping them in memory")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug, info, warn, error")
	if err := f.MarkHidden("redis-password"); err != nil {
		cliconfig.Logger("info").Info("failed to hide redis-password flag", log.Err(err))
	}

	root.AddCommand(
		newListCommand(a),
		newAddCommand(a),
		newIncrementCommand(a),
		newDecrementCommand(a),
		newClearCommand(a),
		newWatchCommand(a),
	)
	return root
}

// setup resolves configuration (flags > env > file > defaults) and opens the store.
func (a *app) setup(cmd *cobra.Command) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}

	if cmd.Annotations[watchAnnotation] == "true" {
		a.cfg.Watch = true
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.logger = cliconfig.Logger(a.cfg.LogLevel)

	logCfg := a.cfg
	if logCfg.RedisPassword != "" {
		logCfg.RedisPassword = "*****"
	}
	a.logger.Debug("configuration", log.Any("config", logCfg))

	store, err := marketcart.Open(cmd.Context(), a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("open cart: %w", err)
	}
	a.store = store
	return nil
}

func newListCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), a.store.Products(), a.store.Summary())
			}
			return writeTable(cmd.OutOrStdout(), a.store.Products(), a.store.Summary())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the cart and its totals as JSON")
	return cmd
}

func newAddCommand(a *app) *cobra.Command {
	var p cart.Product
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product, or one more of it when already in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			if err := a.store.AddToCart(cmd.Context(), p); err != nil {
				return err
			}
			return writeTable(cmd.OutOrStdout(), a.store.Products(), a.store.Summary())
		},
	}
	cmd.Flags().StringVar(&p.ID, "id", "", "product id (default: a new random id)")
	cmd.Flags().StringVar(&p.Title, "title", "", "product title")
	cmd.Flags().StringVar(&p.ImageURL, "image-url", "", "product image URL")
	cmd.Flags().Float64Var(&p.Price, "price", 0, "unit price")
	return cmd
}

func newIncrementCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "increment <id>",
		Short: "Raise the quantity of a product by one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := a.store.Increment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("product %q is not in the cart", args[0])
			}
			return writeTable(cmd.OutOrStdout(), a.store.Products(), a.store.Summary())
		},
	}
}

func newDecrementCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decrement <id>",
		Short: "Lower the quantity of a product by one, removing it at zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Decrement(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeTable(cmd.OutOrStdout(), a.store.Products(), a.store.Summary())
		},
	}
}

func newClearCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every product from the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.Clear(cmd.Context())
		},
	}
}

func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "watch",
		Short:       "Print the cart every time another process changes it",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{watchAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if err := writeTable(out, a.store.Products(), a.store.Summary()); err != nil {
				return err
			}
			cancel := a.store.Subscribe(func(items []cart.Item) {
				fmt.Fprintln(out)
				if err := writeTable(out, items, a.store.Summary()); err != nil {
					a.logger.Warn("print cart", log.Err(err))
				}
			})
			defer cancel()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			a.logger.Info("received signal, stopping...")
			return nil
		},
	}
	cmd.Flags().DurationVar(&a.cfg.WatchDebounce, "watch-debounce", a.cfg.WatchDebounce, "quiet period after a change before reloading")
	return cmd
}

func writeTable(w io.Writer, items []cart.Item, sum cart.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tQTY")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\n", item.ID, item.Title, item.Price, item.Quantity)
	}
	fmt.Fprintf(tw, "\t%d lines, %d units\t%s\t\n", sum.Lines, sum.Units, sum.Total.StringFixed(2))
	return tw.Flush()
}

func writeJSON(w io.Writer, items []cart.Item, sum cart.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Products []cart.Item  `json:"products"`
		Summary  cart.Summary `json:"summary"`
	}{items, sum})
}
