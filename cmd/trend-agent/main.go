package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trend-shorts-agent/internal/agent"
	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/logging"
	"trend-shorts-agent/internal/render"
	"trend-shorts-agent/internal/research"
	"trend-shorts-agent/internal/schedule"
	"trend-shorts-agent/internal/server"
	"trend-shorts-agent/internal/types"
)

var rootCmd = &cobra.Command{
	Use:   "trend-agent",
	Short: "Turns a trending topic into a narrated vertical short and uploads it",
	Long: `trend-agent discovers a trending topic, asks a language model for a short
scene-by-scene script, generates a background image and caption slide per scene,
narrates the script, renders a 1080x1920 MP4 with ffmpeg and uploads it to YouTube.

Run it once with 'trend-agent run' or keep it up with 'trend-agent serve', which
exposes the HTTP trigger, status and progress endpoints and an optional cron schedule.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TREND_AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(trendsCmd())
	rootCmd.AddCommand(statusCmd())
}

// loadConfig reads the config file and returns it with a logger at the
// configured level; --log-level wins over the file and LOG_LEVEL.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, nil, err
	}
	if lvl := viper.GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, logging.New(cfg.Logging.Level), nil
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the optional cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctrl, progress, err := buildController(cfg, log)
			if err != nil {
				return err
			}
			handler, err := server.New(server.Config{
				Agent:     ctrl,
				Progress:  progress,
				JWTSecret: cfg.Server.JWTSecret,
				Logger:    log,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Schedule.Cron != "" {
				sched, err := schedule.New(cfg.Schedule.Cron, cfg.Schedule.Timezone, ctrl, log)
				if err != nil {
					return err
				}
				sched.Start()
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					sched.Stop(stopCtx)
				}()
			}

			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()
			log.Info("serving trend agent API", "addr", cfg.Server.Addr, "auth", cfg.Server.JWTSecret != "", "openapi", "/openapi.json", "docs", "/docs")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runCmd() *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline run in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if err := render.New(cfg.Render, log).CheckDependencies(); err != nil {
				return err
			}
			ctrl, _, err := buildController(cfg, log)
			if err != nil {
				return err
			}
			run, err := ctrl.Start(cmd.Context(), strings.TrimSpace(topic))
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				if err := printJSON(run); err != nil {
					return err
				}
			} else {
				fmt.Println(renderRun(run))
			}
			if run.Status != types.StatusSuccess {
				return fmt.Errorf("run %s failed: %s", run.ID, run.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "trending topic title to use instead of the top one")
	return cmd
}

func trendsCmd() *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "List the trending topics the agent would choose from",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			topics := research.New(cfg, log).Discover(cmd.Context(), region)
			if viper.GetBool("json") {
				return printJSON(topics)
			}
			fmt.Println(renderTopics(topics))
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "region code (defaults to research.region)")
	return cmd
}

func statusCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(url, "/")+"/api/agent/status", nil)
			if err != nil {
				return err
			}
			res, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("query status: %w", err)
			}
			defer res.Body.Close()
			if res.StatusCode != http.StatusOK {
				return fmt.Errorf("status endpoint returned %s", res.Status)
			}
			var snap agent.Snapshot
			if err := json.NewDecoder(res.Body).Decode(&snap); err != nil {
				return fmt.Errorf("decode status: %w", err)
			}
			if viper.GetBool("json") {
				return printJSON(snap)
			}
			fmt.Println(renderSnapshot(snap))
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://127.0.0.1:8080", "base URL of the agent server")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
