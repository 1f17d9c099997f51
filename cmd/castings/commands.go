package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansel1/merry"
	"github.com/fpawel/castings/internal/api"
	"github.com/fpawel/castings/internal/config"
	"github.com/fpawel/castings/internal/data"
	"github.com/fpawel/castings/internal/web"
	"github.com/powerman/structlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type app struct {
	configFile string
	dbPath     string
	cfg        config.Config
	log        *structlog.Logger
}

func rootCommand() *cobra.Command {
	a := &app{log: structlog.New()}

	root := &cobra.Command{
		Use:           "castings",
		Short:         "Tesla casting lookup: data API, web front end and CSV loader",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "castings.toml", "config file, .toml or .yaml")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database file, overrides db_path")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(a.configFile)
		if err != nil {
			return err
		}
		if a.dbPath != "" {
			cfg.DBPath = a.dbPath
		}
		if err := cfg.Validate(); err != nil {
			return merry.Append(err, a.configFile)
		}
		a.cfg = cfg
		structlog.DefaultLogger.SetLogLevel(structlog.ParseLevel(cfg.LogLevel))
		a.log = structlog.New()
		return nil
	}

	root.AddCommand(
		a.apiCommand(),
		a.webCommand(),
		a.importCommand(),
		a.configCommand(),
	)
	return root
}

func (a *app) apiCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Serve the castings JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.API.Addr = addr
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			log := logPrependSuffixKeys(a.log, "addr", a.cfg.API.Addr)

			log.Debug("open database: " + a.cfg.DBPath)
			db, err := data.Open(a.cfg.DBPath)
			if err != nil {
				return merry.Append(err, a.cfg.DBPath)
			}
			defer log.ErrIfFail(db.Close)

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			srv := &http.Server{
				Addr:              a.cfg.API.Addr,
				Handler:           api.NewHandler(data.NewStore(db), reg),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), log, srv.ListenAndServe, srv.Shutdown)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides api.addr")
	return cmd
}

func (a *app) webCommand() *cobra.Command {
	var addr, apiURL string
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the web front end of the castings API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Web.Addr = addr
			}
			if apiURL != "" {
				a.cfg.Web.APIBaseURL = apiURL
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			log := logPrependSuffixKeys(a.log, "addr", a.cfg.Web.Addr, "api", a.cfg.Web.APIBaseURL)

			client := web.NewClient(web.ClientConfig{
				BaseURL:       a.cfg.Web.APIBaseURL,
				LookupTimeout: a.cfg.Web.LookupTimeout,
				QueryTimeout:  a.cfg.Web.QueryTimeout,
			}, &http.Client{})
			s := web.NewServer(client, a.cfg.Web.PageSize)
			return serve(cmd.Context(), log, func() error {
				return s.Start(a.cfg.Web.Addr)
			}, s.Shutdown)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides web.addr")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "castings API base URL, overrides web.api_base_url")
	return cmd
}

func (a *app) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Load castings from a CSV file, keeping rows that already exist",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := "data/tesla_castings.csv"
			if len(args) == 1 {
				filename = args[0]
			}
			log := logPrependSuffixKeys(a.log, "file", filename)

			f, err := os.Open(filename)
			if err != nil {
				return merry.Wrap(err)
			}
			defer log.ErrIfFail(f.Close)

			db, err := data.Open(a.cfg.DBPath)
			if err != nil {
				return merry.Append(err, a.cfg.DBPath)
			}
			defer log.ErrIfFail(db.Close)

			stats, err := data.Import(cmd.Context(), log, db, f)
			if err != nil {
				return err
			}
			log.Info("import complete", "read", stats.Read, "inserted", stats.Inserted, "skipped", stats.Skipped)
			return nil
		},
	}
}

func (a *app) configCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the configuration",
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.Info("effective configuration", "config", a.cfg)
			return a.cfg.Validate()
		},
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the configuration file with current values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.configFile); err == nil && !force {
				return merry.Errorf("%s already exists, use --force to overwrite", a.configFile)
			}
			if err := config.Save(a.configFile, a.cfg); err != nil {
				return err
			}
			a.log.Info(a.configFile + " saved")
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(show, initCmd)
	return cmd
}

// serve runs listen until it fails or the process is told to stop, then
// shuts the server down gracefully.
func serve(ctx context.Context, log *structlog.Logger, listen func() error, shutdown func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening")
		errCh <- listen()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return merry.Wrap(err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		return merry.Append(err, "shutdown")
	}
	return nil
}
