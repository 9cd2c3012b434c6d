package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/mbolis/parish-forms/database"
	"github.com/mbolis/parish-forms/log"
	"github.com/mbolis/parish-forms/store"
)

var passwordStdin bool

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage dashboard users",
}

var adminAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a dashboard user, or reset its password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(args[0])
		if username == "" {
			return errors.New("empty username")
		}

		password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.DBUrl)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.New(db).PutUser(cmd.Context(), username, hash); err != nil {
			return err
		}
		log.WithField("user", username).Info("admin saved")
		return nil
	},
}

func init() {
	adminAddCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	adminCmd.AddCommand(adminAddCmd)
}

// readPassword prompts on the terminal without echo, or reads one line from
// in when --password-stdin is set or stdin is not a terminal.
func readPassword(in io.Reader, prompt io.Writer) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if passwordStdin || !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return checkPassword([]byte(strings.TrimRight(line, "\r\n")))
	}

	fmt.Fprint(prompt, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return nil, err
	}
	fmt.Fprint(prompt, "Repeat password: ")
	again, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return nil, err
	}
	if string(password) != string(again) {
		return nil, errors.New("passwords do not match")
	}
	return checkPassword(password)
}

func checkPassword(password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, errors.New("empty password")
	}
	// bcrypt ignores anything past 72 bytes
	if len(password) > 72 {
		return nil, errors.New("password longer than 72 bytes")
	}
	return password, nil
}
