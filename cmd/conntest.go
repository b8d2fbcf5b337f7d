package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nsxbet/ddl-validator/pkg/catalog"
)

var connTestCmd = &cobra.Command{
	Use:   "conn-test",
	Short: "Test the connection to the target database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := initLogger()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
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
			return errors.New("no database configured; set --secret or --dsn")
		}
		defer conn.close()

		version, database, err := catalog.NewIntrospector(conn.cursor, log).ServerInfo(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Connected: MySQL %s, database %q\n", version, database)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(connTestCmd)
}
