package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nsxbet/ddl-validator/pkg/catalog"
	"github.com/nsxbet/ddl-validator/pkg/config"
	"github.com/nsxbet/ddl-validator/pkg/logger"
	"github.com/nsxbet/ddl-validator/pkg/report"
	"github.com/nsxbet/ddl-validator/pkg/report/uploader"
	"github.com/nsxbet/ddl-validator/pkg/reviewer"
	"github.com/nsxbet/ddl-validator/pkg/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flags] <sql-file>",
	Short: "Validate DDL statements before applying them",
	Long: `Validate every statement of a file through the syntax, standards,
connection, schema, performance and safety checks.

Schema checks need a database; configure one with --secret or --dsn.
Without a database they are reported as skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	validateCmd.Flags().String("database", "", "target database identifier shown in the report")
	validateCmd.Flags().Bool("upload", false, "upload the JSON reports to the configured bucket")
	validateCmd.Flags().Bool("fail-on-error", false, "exit with non-zero code if errors are found")
	validateCmd.Flags().Bool("fail-on-warning", false, "exit with non-zero code if warnings are found")

	_ = viper.BindPFlag("output", validateCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("database", validateCmd.Flags().Lookup("database"))
	_ = viper.BindPFlag("upload", validateCmd.Flags().Lookup("upload"))
	_ = viper.BindPFlag("fail-on-error", validateCmd.Flags().Lookup("fail-on-error"))
	_ = viper.BindPFlag("fail-on-warning", validateCmd.Flags().Lookup("fail-on-warning"))
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := initLogger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := report.ParseFormat(viper.GetString("output"))
	if err != nil {
		return err
	}

	sqlFile := args[0]
	log.Debug("Reading SQL file", "file", sqlFile)
	sqlContent, err := os.ReadFile(sqlFile)
	if err != nil {
		return errors.Wrapf(err, "failed to read SQL file: %s", sqlFile)
	}

	cfg, err := loadConfiguration()
	if err != nil {
		return err
	}
	opts, err := reviewerOptions(cfg, log)
	if err != nil {
		return err
	}

	var cursor catalog.Cursor
	conn, err := connect(ctx, cfg, log)
	if err != nil {
		// Validation still runs; the connection stage records the failure.
		log.Warn("database unavailable", logger.Error(err))
		cursor = failedCursor{err: err}
	} else if conn != nil {
		defer conn.close()
		cursor = conn.cursor
	}

	reports, err := reviewer.New(opts...).ValidateScript(ctx, string(sqlContent), cursor, viper.GetString("database"))
	if err != nil {
		return err
	}
	if err := report.Render(cmd.OutOrStdout(), format, reports); err != nil {
		return err
	}

	if viper.GetBool("upload") {
		if err := uploadReports(ctx, cfg.Upload, reports, log); err != nil {
			return err
		}
	}

	hasErrors, hasWarnings := false, false
	for _, r := range reports {
		hasErrors = hasErrors || r.Count(types.Severity_ERROR) > 0
		hasWarnings = hasWarnings || r.Count(types.Severity_WARNING) > 0
	}
	if hasErrors && viper.GetBool("fail-on-error") {
		os.Exit(1)
	}
	if hasWarnings && viper.GetBool("fail-on-warning") {
		os.Exit(1)
	}
	return nil
}

func uploadReports(ctx context.Context, cfg config.UploadConfig, reports []*report.Report, log *slog.Logger) error {
	u, err := uploader.New(ctx, cfg)
	if err != nil {
		return err
	}
	if !u.Enabled() {
		log.Warn("upload requested but no upload provider is configured")
		return nil
	}
	for _, r := range reports {
		document, err := report.JSON(r)
		if err != nil {
			return err
		}
		url, err := u.Upload(ctx, r.ID, document)
		if err != nil {
			return err
		}
		log.Info("report uploaded", "id", r.ID, "url", url)
	}
	return nil
}

// failedCursor fails every query with the error that prevented connecting,
// so the connection stage reports it like a lost connection.
type failedCursor struct {
	err error
}

func (c failedCursor) Execute(context.Context, string, ...any) error {
	return errors.Wrapf(catalog.ErrConnection, "%v", c.err)
}

func (c failedCursor) FetchOne() ([]any, error) {
	return nil, c.err
}

func (c failedCursor) FetchAll() ([][]any, error) {
	return nil, c.err
}
