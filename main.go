package main

import (
	"database/sql"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mbolis/parish-forms/config"
	"github.com/mbolis/parish-forms/database"
	"github.com/mbolis/parish-forms/events"
	"github.com/mbolis/parish-forms/forms"
	"github.com/mbolis/parish-forms/log"
	"github.com/mbolis/parish-forms/store"
)

var (
	configFile string
	v          = config.New()
)

var rootCmd = &cobra.Command{
	Use:           "parish-forms <command>",
	Short:         "Dynamic forms for the parish website",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ReadFile(v, configFile); err != nil {
			return err
		}
		if v.GetBool("debug") {
			log.SetLevel(log.DebugLevel)
		}
		log.SetFormat(v.GetString("log-format"))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	flags.String("db-url", "parish.sqlite", "SQLite database file")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("log-format", "text", "log format (text or json)")
	bindFlags(v, flags.Lookup("db-url"), flags.Lookup("debug"), flags.Lookup("log-format"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(adminCmd)
}

// openEngine opens the database and builds the form engine on top of it.
// The caller closes the database.
func openEngine(cfg config.Config, publisher events.Publisher) (*sql.DB, *forms.Engine, error) {
	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		return nil, nil, err
	}
	st := store.New(db)
	return db, forms.NewEngine(st, st, publisher), nil
}

func loadConfig(requireSecret bool) (config.Config, error) {
	return config.Load(v, requireSecret)
}

func bindFlags(v *viper.Viper, flags ...*pflag.Flag) {
	for _, f := range flags {
		if err := v.BindPFlag(f.Name, f); err != nil {
			log.Fatal("main.config.bind:", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
