// Package adduser implements the "filesmanager adduser" CLI subcommand.
// It writes a user record directly into the SQLite database.
package adduser

import (
	"context"
	"flag"
	"fmt"
	"os"

	"filesmanager/internal/cmd/server"
	"filesmanager/internal/setup"
)

// Options captures CLI flags for user creation.
// Password and PasswordEnv are mutually exclusive by usage.
type Options struct {
	ConfigPath  string
	DBPath      string
	Email       string
	Password    string
	PasswordEnv bool
	Legacy      bool
}

func Run(args []string) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	var opt Options
	fs.StringVar(&opt.ConfigPath, "config", "", "path to filesmanager.yaml (for db.path)")
	fs.StringVar(&opt.DBPath, "db", "", "sqlite database path (overrides config)")
	fs.StringVar(&opt.Email, "email", "", "login email of the new user")
	fs.StringVar(&opt.Password, "password", "", "set password non-interactively")
	fs.BoolVar(&opt.PasswordEnv, "password-env", false, "read password from "+setup.PasswordEnv)
	fs.BoolVar(&opt.Legacy, "legacy-digest", false, "store a hex SHA-1 digest instead of Argon2id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dbPath := opt.DBPath
	if dbPath == "" {
		c, err := server.LoadConfig(opt.ConfigPath)
		if err != nil {
			return err
		}
		dbPath = c.DB.Path
	}
	id, err := setup.AddUser(context.Background(), setup.AddUserOptions{
		DBPath:          dbPath,
		Email:           opt.Email,
		Password:        opt.Password,
		PasswordFromEnv: opt.PasswordEnv,
		Legacy:          opt.Legacy,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "created user %d (%s)\n", id, opt.Email)
	return nil
}
