package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/service"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/config"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/container"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/export"
	"github.com/dpsg-wuerzburg/bjr-exporter/pkg/utils"
)

type exportOptions struct {
	configPath string
	events     []string
	out        string
	sheet      string
	deliver    bool
}

func newRootCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:           "bjr-export",
		Short:         "Export BJR registration and invoice sheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to the config file (defaults and environment only when empty)")
	cmd.Flags().StringSliceVar(&opts.events, "event", nil, "Event slug, repeatable or comma separated (default: all events)")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output file; '-' writes to stdout (default: generated name in the current directory)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Export a single sheet as CSV instead of the workbook")
	cmd.Flags().BoolVar(&opts.deliver, "deliver", false, "Write the workbook to the output directory and deliver it to Lark")

	cmd.AddCommand(newSheetsCmd())
	return cmd
}

func newSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "List the sheets of the export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, sheet := range export.Sheets() {
				fmt.Fprintf(w, "%s\t%s\n", sheet.Identifier, sheet.Title)
			}
			return w.Flush()
		},
	}
}

func (o *exportOptions) validate() error {
	slugs, err := utils.ParseSlugs(o.events...)
	if err != nil {
		return err
	}
	o.events = slugs

	if o.sheet != "" {
		if _, ok := export.LookupSheet(o.sheet); !ok {
			return fmt.Errorf("%w: %s", export.ErrUnknownSheet, o.sheet)
		}
	}
	if o.deliver && (o.sheet != "" || o.out != "") {
		return errors.New("--deliver cannot be combined with --sheet or --out")
	}
	return nil
}

func runExport(ctx context.Context, opts exportOptions, stdout io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	loggerCfg := cfg.LoggerSettings()
	loggerCfg.Service = "bjr-export"
	if loggerCfg.OutputPath == "" || loggerCfg.OutputPath == "stdout" {
		loggerCfg.OutputPath = "stderr"
	}
	logger, err := utils.NewLogger(loggerCfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Failed to close container", zap.Error(err))
		}
	}()

	svc := c.ExportService()
	if opts.deliver {
		result, err := svc.ExportAndDeliver(ctx, opts.events)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "delivered %s\n", result.Path)
		return nil
	}

	if opts.out == "-" {
		_, err := exportTo(ctx, svc, opts, stdout)
		return err
	}
	return exportToFile(ctx, svc, opts, stdout)
}

// exportToFile writes into a temporary file and renames it once the export succeeded
func exportToFile(ctx context.Context, svc service.ExportService, opts exportOptions, stdout io.Writer) error {
	dir := "."
	if opts.out != "" {
		dir = filepath.Dir(opts.out)
	}
	tmp, err := os.CreateTemp(dir, ".bjr-export-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	result, err := exportTo(ctx, svc, opts, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	target := opts.out
	if target == "" {
		target = result.FileName
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	fmt.Fprintf(stdout, "wrote %s\n", target)
	for _, sheet := range export.Sheets() {
		if n, ok := result.Rows[string(sheet.Identifier)]; ok {
			fmt.Fprintf(stdout, "  %-10s %d rows\n", sheet.Title, n)
		}
	}
	return nil
}

func exportTo(ctx context.Context, svc service.ExportService, opts exportOptions, w io.Writer) (*service.ExportResult, error) {
	if opts.sheet != "" {
		return svc.ExportSheetCSV(ctx, opts.events, opts.sheet, w)
	}
	return svc.ExportWorkbook(ctx, opts.events, w)
}
