package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mbolis/parish-forms/forms"
	"github.com/mbolis/parish-forms/log"
)

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Create a form from a YAML definition",
	Long: `Create a form from a YAML definition such as:

  title: Easter Vigil RSVP
  description: Let us know you are coming.
  fields:
    - type: text
      label: Name
      required: true
    - type: single-select
      label: Meal
      options: [Fish, Vegetarian]

Field ids are generated, so the same file can be imported more than once.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := readFormSpec(args[0])
		if err != nil {
			return err
		}
		draft, err := spec.Draft()
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		publisher, err := newPublisher(cfg)
		if err != nil {
			return err
		}
		defer publisher.Close()

		db, engine, err := openEngine(cfg, publisher)
		if err != nil {
			return err
		}
		defer db.Close()

		def, err := engine.CreateForm(cmd.Context(), draft)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"form": def.ID, "fields": len(def.Fields)}).Info("form imported")
		fmt.Fprintln(cmd.OutOrStdout(), def.ID)
		return nil
	},
}

func readFormSpec(path string) (forms.FormSpec, error) {
	var spec forms.FormSpec
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, err
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("parse %s: %w", path, err)
	}
	return spec, nil
}
