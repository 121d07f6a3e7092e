package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"rbcal/internal/calendar"
	"rbcal/internal/config"
	"rbcal/internal/ics"
	appLog "rbcal/internal/log"
	"rbcal/internal/web"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "rbcal",
		Short: "Calendar layout engine for day, week and month views",
		Long: `rbcal reads events from ICS sources and lays them out the way a
calendar widget draws them: side by side columns in a day, packed rows
with "+N more" links in a week or month.

It can print a layout once or serve layouts over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "rbcal version %s\n" .Version}}`)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "./rbcal.yaml", "Path to config file (created on first run)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: DEBUG, INFO or ERROR (overrides config)")

	root.AddCommand(newLayoutCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// load reads the config and applies the logging settings.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", o.configPath, err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	appLog.Debug("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"week_start", cfg.WeekStart,
		"refresh", cfg.RefreshCron,
		"view_min", cfg.View.Min,
		"view_max", cfg.View.Max,
		"sources", len(cfg.Sources),
	)
	return cfg, nil
}

func newLayoutCmd(root *rootOptions) *cobra.Command {
	var (
		date   string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:       "layout {day|week|month}",
		Short:     "Print the layout of a day, week or month as JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"day", "week", "month"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			cal := calendar.New(cfg)
			on := time.Now().In(cal.Location())
			if date != "" {
				on, err = time.ParseInLocation(time.DateOnly, date, cal.Location())
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", date)
				}
			}

			if _, errs := cal.Reload(cmd.Context(), ics.NewLoader(nil), calendar.Sources(cfg)); len(errs) > 0 {
				appLog.Error("some sources could not be loaded", errs[0], "error_count", len(errs))
			}

			var view any
			switch args[0] {
			case "day":
				view, err = cal.Day(on)
			case "week":
				view, err = cal.Week(on)
			case "month":
				view = cal.Month(on)
			default:
				return fmt.Errorf("unknown view %q, want day, week or month", args[0])
			}
			if err != nil {
				return err
			}
			return writeView(cmd.OutOrStdout(), view, pretty)
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Date to lay out (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")
	return cmd
}

func writeView(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over HTTP and reload sources on schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("rbcal starting", "version", version, "listen", cfg.Listen)
			srv := web.NewServer(cfg, calendar.New(cfg), ics.NewLoader(nil))
			if err := srv.Run(cmd.Context()); err != nil {
				return err
			}
			appLog.Info("rbcal exiting")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rbcal version %s\n", version)
		},
	}
}
