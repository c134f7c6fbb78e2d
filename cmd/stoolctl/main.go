package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/stoolscan/internal/bootstrap"
	"github.com/bryanwahyu/stoolscan/internal/config"
	domain "github.com/bryanwahyu/stoolscan/internal/domain/analysis"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "stoolctl",
		Short:        "Run stool image analyses and read history from the command line",
		SilenceUsage: true,
	}
	defaultPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to config.yaml")

	root.AddCommand(newAnalyzeCmd(), newHistoryCmd())
	return root
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <image-file>",
		Short: "Analyze one image and store the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if len(data) == 0 {
				return domain.ErrImageRequired
			}

			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			rec, err := app.Service.Analyze(cmd.Context(), domain.NewImage(data, ""))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"analysis": rec})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := domain.NewHistoryFilter(start, end)
			if err != nil {
				return err
			}

			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			entries, err := app.Service.History(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"entries": entries})
		},
	}
	cmd.Flags().StringVar(&start, "start-date", "", "inclusive lower bound (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&end, "end-date", "", "inclusive upper bound (YYYY-MM-DD or RFC 3339)")
	return cmd
}

func buildApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load error: %w", err)
	}
	return bootstrap.Build(cmd.Context(), cfg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
