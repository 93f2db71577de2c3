package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pgbinload/internal/config"
	"pgbinload/internal/ddl"
)

func newValidateCmd() *cobra.Command {
	var showDDL bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and print the resolved table definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, issues := config.ValidateConfig(cfg)
			w := cmd.OutOrStdout()
			for _, iss := range issues {
				fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if err := config.Errors(issues); err != nil {
				return fmt.Errorf("invalid configuration: %d issue(s)", len(issues))
			}

			fmt.Fprintf(w, "ok: %d columns, %d encoded, %d rows\n", s.Len(), s.NonSerialLen(), cfg.RowCount)
			if !showDDL {
				return nil
			}
			def, err := ddl.FromSchema(cfg.TableName, s)
			if err != nil {
				return err
			}
			stmts, err := ddl.Recreate(def)
			if err != nil {
				return err
			}
			for _, stmt := range stmts {
				fmt.Fprintf(w, "%s;\n", stmt)
			}
			return nil
		},
	}
	addDataFlags(cmd.Flags())
	addLoadFlags(cmd.Flags())
	cmd.Flags().BoolVar(&showDDL, "ddl", false, "print the statements that recreate the table")
	return cmd
}
