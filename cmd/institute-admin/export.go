package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/repository"
	"github.com/noah-isme/institute-api/internal/service"
	"github.com/noah-isme/institute-api/pkg/config"
	"github.com/noah-isme/institute-api/pkg/database"
)

func exportCmd() *cobra.Command {
	var (
		format       string
		courseID     string
		includeStats bool
		outDir       string
	)
	cmd := &cobra.Command{
		Use:       "export [enrollment|payments]",
		Short:     "Renders a report straight from the database into a file",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.ReportTypeEnrollment), string(models.ReportTypePayments)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.NewPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer db.Close()

			exporter := service.NewExportService(
				repository.NewEnrollmentRepository(db),
				service.NewReportBuilder(cfg.InstituteName, cfg.Reports.CurrencySymbol),
				nil, nil, nil,
				service.ExportConfig{APIPrefix: cfg.APIPrefix},
				nil,
			)
			report, err := exporter.Render(cmd.Context(), service.ReportOptions{
				Type:         models.ReportType(args[0]),
				Format:       models.ReportFormat(format),
				CourseID:     courseID,
				IncludeStats: includeStats,
			})
			if err != nil {
				return err
			}
			if report == nil {
				return errors.New("no enrollment data available")
			}

			path := filepath.Join(outDir, report.Filename)
			if err := os.WriteFile(path, report.Data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows)\n", path, report.Rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(models.ReportFormatCSV), "csv, html or pdf")
	cmd.Flags().StringVar(&courseID, "course", "all", "course id, or all")
	cmd.Flags().BoolVar(&includeStats, "stats", false, "include summary statistics (enrollment report, html and pdf)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	return cmd
}
