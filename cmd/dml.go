package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/ddl-validator/pkg/catalog"
	"github.com/nsxbet/ddl-validator/pkg/dml"
	"github.com/nsxbet/ddl-validator/pkg/report"
)

var dmlCmd = &cobra.Command{
	Use:   "dml [flags] <sql-file>",
	Short: "Check that the columns used by DML statements exist",
	Long: `Check the qualified column references (alias.column) of every SELECT,
UPDATE and DELETE statement in a file against the live schema.`,
	Args: cobra.ExactArgs(1),
	RunE: runDML,
}

func init() {
	rootCmd.AddCommand(dmlCmd)

	dmlCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	dmlCmd.Flags().Bool("fail-on-error", false, "exit with non-zero code if missing columns are found")
}

func runDML(cmd *cobra.Command, args []string) error {
	log := initLogger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	output, _ := cmd.Flags().GetString("output")
	format, err := report.ParseFormat(output)
	if err != nil {
		return err
	}

	sqlContent, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "failed to read SQL file: %s", args[0])
	}

	cfg, err := loadConfiguration()
	if err != nil {
		return err
	}
	conn, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	if conn == nil {
		return errors.New("the dml command needs a database; set --secret or --dsn")
	}
	defer conn.close()

	resolver := dml.NewResolver(catalog.NewIntrospector(conn.cursor, log), dml.WithLogger(log))
	tally, err := resolver.ValidateBatch(ctx, string(sqlContent))
	if err != nil {
		return err
	}
	if err := renderTally(cmd.OutOrStdout(), format, tally); err != nil {
		return err
	}

	failOnError, _ := cmd.Flags().GetBool("fail-on-error")
	if failOnError && tally.QueriesWithIssues > 0 {
		os.Exit(1)
	}
	return nil
}

func renderTally(w io.Writer, format report.Format, tally *dml.Tally) error {
	switch format {
	case report.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tally)
	case report.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(tally)
	}

	for _, result := range tally.Results {
		if len(result.Issues) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint(result.QueryType), color.CyanString(result.SQL))
		for _, issue := range result.Issues {
			fmt.Fprintf(w, "\t[%s] %s\n", issue.Severity, issue.Message)
		}
	}
	if tally.QueriesWithIssues == 0 {
		fmt.Fprintln(w, color.GreenString("✔ All referenced columns exist."))
	}
	fmt.Fprintf(w, "\nSummary: %d quer(ies), %d with missing columns\n", tally.TotalQueries, tally.QueriesWithIssues)
	return nil
}
