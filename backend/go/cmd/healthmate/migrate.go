package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the users, messages and facts tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp("migrate")
		if err != nil {
			return err
		}
		_, closeDB, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		closeDB()
		a.log.Info("Database migration completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
