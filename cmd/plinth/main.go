// Command plinth evaluates plan scripts, detects rooms and checks the
// plan's elements for clashes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/plinth/pkg/app"
	"github.com/chazu/plinth/pkg/config"
	"github.com/chazu/plinth/pkg/engine"
	"github.com/chazu/plinth/pkg/logger"
)

// options holds the global flags.
type options struct {
	configPath string
	logMode    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "plinth",
		Short:        "Room detection and clash checking for scripted floor plans",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&opts.logMode, "log", "", "log mode: off, dev or prod (default from config)")

	rootCmd.AddCommand(roomsCmd(opts))
	rootCmd.AddCommand(clashCmd(opts))
	rootCmd.AddCommand(rulesCmd(opts))
	rootCmd.AddCommand(validateCmd(opts))
	rootCmd.AddCommand(meshCmd(opts))

	return rootCmd
}

// newApp loads the config and builds the application service.
func newApp(opts *options) (*app.App, *logger.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := newLogger(logMode(opts.logMode, cfg))
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cfg, app.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

// logMode picks the --log flag when set and the config's mode otherwise.
func logMode(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Log.Mode
}

func newLogger(mode string) (*logger.Logger, error) {
	switch mode {
	case "off":
		return logger.Nop(), nil
	case "dev", "prod", "production":
		log, err := logger.New(mode)
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		return log, nil
	default:
		return nil, fmt.Errorf("logger: unknown mode %q", mode)
	}
}

// evaluateFile loads and evaluates a plan script, failing on any error.
func evaluateFile(cmd *cobra.Command, opts *options, path string) (*app.App, app.EvalResult, error) {
	a, log, err := newApp(opts)
	if err != nil {
		return nil, app.EvalResult{}, err
	}
	defer log.Sync()

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, app.EvalResult{}, err
	}
	result := a.Evaluate(string(src))
	if !result.OK() {
		printErrors(cmd.ErrOrStderr(), path, result.Errors)
		return nil, result, fmt.Errorf("%s: %d error(s)", path, len(result.Errors))
	}
	return a, result, nil
}

func printErrors(w io.Writer, path string, errs []engine.EvalError) {
	for _, e := range errs {
		fmt.Fprintf(w, "%s: %s\n", path, e.Error())
	}
}

func roomsCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rooms <file>",
		Short: "Detect and classify the rooms of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, result, err := evaluateFile(cmd, opts, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result.Rooms)
			}

			upm := a.Plan().UnitsPerMeter()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTYPE\tAREA (m2)\tPERIMETER (m)\tWALLS")
			for _, r := range result.Rooms {
				walls := make([]string, len(r.WallIDs))
				for i, id := range r.WallIDs {
					walls[i] = string(id)
				}
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%s\n",
					r.Name, r.Type, r.Area/(upm*upm), r.Perimeter/upm, strings.Join(walls, ","))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d room(s)\n", len(result.Rooms))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print rooms as JSON")
	return cmd
}

func clashCmd(opts *options) *cobra.Command {
	var ruleID, format string

	cmd := &cobra.Command{
		Use:   "clash <file>",
		Short: "Run clash detection over the plan's elements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "table", app.FormatCSV, app.FormatBCF:
			default:
				return fmt.Errorf("unknown format %q, expected table, csv or bcf", format)
			}

			a, _, err := evaluateFile(cmd, opts, args[0])
			if err != nil {
				return err
			}
			clashes, err := a.RunClashDetection(context.Background(), ruleID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != "table" {
				return a.ExportClashes(out, format)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RULE\tSEVERITY\tELEMENT A\tELEMENT B\tPOINT\tVOLUME")
			for _, c := range clashes {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t(%.0f, %.0f, %.0f)\t%.3g\n",
					c.RuleID, c.Severity, c.ElementA, c.ElementB, c.Point.X, c.Point.Y, c.Point.Z, c.Volume)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d clash(es)\n", len(clashes))
			return nil
		},
	}

	cmd.Flags().StringVar(&ruleID, "rule", "", "run only this rule (default: all enabled rules)")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, csv or bcf")
	return cmd
}

func rulesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the configured clash rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := newApp(opts)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tENABLED\tCHECK\tTOLERANCE\tSET A\tSET B")
			for _, r := range a.Clash().Rules() {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%g\t%s\t%s\n",
					r.ID, r.Name, r.Enabled, r.CheckType, r.Tolerance,
					strings.Join(r.SetA.Types, ","), strings.Join(r.SetB.Types, ","))
			}
			return tw.Flush()
		},
	}
}

func validateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a plan script for errors and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, result, err := evaluateFile(cmd, opts, args[0])
			out := cmd.OutOrStdout()
			for _, w := range result.Warnings {
				if w.EntityID != "" {
					fmt.Fprintf(out, "%s: warning: %s: %s\n", args[0], w.EntityID, w.Message)
				} else {
					fmt.Fprintf(out, "%s: warning: %s\n", args[0], w.Message)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: ok (%d warning(s))\n", args[0], len(result.Warnings))
			return nil
		},
	}
}

func meshCmd(opts *options) *cobra.Command {
	var slabs bool

	cmd := &cobra.Command{
		Use:   "mesh <file>",
		Short: "Tessellate a plan and print the meshes as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := evaluateFile(cmd, opts, args[0])
			if err != nil {
				return err
			}
			meshes, err := a.Tessellate(slabs)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), meshes)
		},
	}

	cmd.Flags().BoolVar(&slabs, "slabs", false, "add a floor slab per room")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
