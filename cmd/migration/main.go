package main

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/address-book-service/internal/config"
	"gitlab.com/dirk.krummacker/address-book-service/internal/database"
	"gitlab.com/dirk.krummacker/address-book-service/internal/logging"
)

const fileKey = "file"

// Usage example on the command line:
// > DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 go run main.go
// > DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 go run main.go --file=../../scripts/database.sql
func main() {
	cmd := &cobra.Command{
		Use:   "address-book-migration",
		Short: "Executes a SQL script on the address book database",
		Long: `Executes the statements of a SQL script on the address book database, one after another.
Without a script, the addresses table is created for the configured driver if it does not exist.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ReadConfigFile(viper.GetViper(), cmd.Use); err != nil {
				return err
			}
			driver, dsn, err := config.LoadDatabase(viper.GetViper())
			if err != nil {
				return err
			}
			log := logging.New(logging.Options{Verbose: viper.GetBool(config.VerboseKey)})
			defer log.Sync()

			db, err := database.Open(cmd.Context(), log, driver, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			var script io.Reader
			if file := viper.GetString(fileKey); file != "" {
				readFile, err := os.Open(file) // nosemgrep
				if err != nil {
					return err
				}
				defer readFile.Close()
				script = readFile
			} else {
				ddl, err := database.Schema(driver)
				if err != nil {
					return err
				}
				script = strings.NewReader(ddl)
			}

			executed, err := database.ExecScript(cmd.Context(), db, script)
			if err != nil {
				return err
			}
			log.Info("Executed statements", zap.Int("count", executed))
			return nil
		},
	}

	config.RegisterCommonFlags(cmd.PersistentFlags(), cmd.Use)
	config.RegisterDatabaseFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().StringP(fileKey, "f", "", "The SQL file to execute (default: create the addresses table)")

	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		panic(err)
	}
	config.BindEnv(viper.GetViper())

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
