package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/prospector/cmd/prospector/cli"
	"github.com/odyssey-erp/prospector/internal/app"
)

// exitCode carries a command's status out of cobra.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("exit status %d", int(c)) }

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	var code exitCode
	switch {
	case err == nil:
		return 0
	case errors.As(err, &code):
		return int(code)
	default:
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 1
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prospector",
		Short:         "Lead classification dashboard for company financial workbooks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newClassifyCmd(), newReportCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newClassifyCmd() *cobra.Command {
	var opts cli.ClassifyOptions
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the companies of a workbook and print the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadPipelineConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			targets, err := cfg.LoadTargets()
			if err != nil {
				return err
			}
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			return status(cli.NewRunner(targets, nil).ClassifyCommand(cmd.Context(), opts))
		},
	}
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Workbook to classify (.xlsx)")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Print records as JSON")
	cmd.Flags().BoolVar(&opts.LeadsOnly, "leads-only", false, "Only print target leads")
	cmd.Flags().IntVar(&opts.Top, "top", 0, "Limit output to the N largest companies by 2024 revenue")
	return cmd
}

func newReportCmd() *cobra.Command {
	var opts cli.ReportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a PDF report for selected companies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadPipelineConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := app.NewCLILogger(cfg)
			targets, err := cfg.LoadTargets()
			if err != nil {
				return err
			}
			stack, err := app.NewReportStack(cfg, logger, nil)
			if err != nil {
				return err
			}
			if err := stack.Converter.Ping(cmd.Context()); err != nil {
				logger.Warn("gotenberg ping", slog.Any("error", err))
			}
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			return status(cli.NewRunner(targets, stack.Service).ReportCommand(cmd.Context(), opts))
		},
	}
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Workbook to read (.xlsx)")
	cmd.Flags().IntSliceVar(&opts.Rows, "rows", nil, "Sheet rows to include, in report order")
	cmd.Flags().IntVar(&opts.Top, "top", 0, "Include the N target leads with the largest 2024 revenue")
	cmd.Flags().BoolVar(&opts.Narratives, "narratives", false, "Request an AI analysis per company")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "Output PDF path")
	return cmd
}

func status(code int) error {
	if code == cli.ExitOK {
		return nil
	}
	return exitCode(code)
}
