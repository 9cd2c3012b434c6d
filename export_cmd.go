package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mbolis/parish-forms/events"
	"github.com/mbolis/parish-forms/log"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <form-id>",
	Short: "Write the responses of a form to a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}

		db, engine, err := openEngine(cfg, events.NoopPublisher{})
		if err != nil {
			return err
		}
		defer db.Close()

		exp, err := engine.Export(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("export %s: %w", args[0], err)
		}

		path := filepath.Join(exportOut, exp.Filename)
		if err := os.WriteFile(path, exp.Content, 0o644); err != nil {
			return err
		}
		log.WithFields(log.Fields{"form": args[0], "file": path}).Info("export written")
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "directory to write the file into")
}
