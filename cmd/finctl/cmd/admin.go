package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/templui/finboard/internal/config"
	"github.com/templui/finboard/internal/db"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/service"
	"golang.org/x/term"
)

type createAdminFlags struct {
	email    string
	name     string
	phone    string
	password string
}

// CreateAdminCmd bootstraps the first admin. Later accounts are created by
// admins through the API.
func CreateAdminCmd() *cobra.Command {
	var flags createAdminFlags

	c := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateAdmin(cmd, flags)
		},
	}

	c.Flags().StringVar(&flags.email, "email", "", "admin email (required)")
	c.Flags().StringVar(&flags.name, "name", "", "full name (required)")
	c.Flags().StringVar(&flags.phone, "phone", "", "phone number")
	c.Flags().StringVar(&flags.password, "password", "", "password, prompted for when omitted")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("name")

	return c
}

func runCreateAdmin(cmd *cobra.Command, flags createAdminFlags) error {
	password := flags.password
	if password == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		var err error
		password, err = readPassword(cmd.InOrStdin())
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	return withDB(func(cfg *config.Config, conn *sqlx.DB) error {
		err := db.RunMigrations(conn.DB, cfg.DBDriver)
		if err != nil {
			return err
		}

		admin := newAdminService(cfg, conn)
		user, err := admin.Bootstrap(service.CreateUserInput{
			FullName: flags.name,
			Email:    flags.email,
			Phone:    flags.phone,
			Password: password,
		})
		if err != nil {
			if service.IsValidation(err) {
				return fmt.Errorf("invalid input: %w", err)
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created with ID %s\n", user.Email, user.ID)
		return nil
	})
}

func newAdminService(cfg *config.Config, conn *sqlx.DB) *service.AdminService {
	users := repository.NewUserRepository(conn)
	profiles := repository.NewProfileRepository(conn)
	// only password hashing is used here, sessions are never issued
	auth := service.NewAuthService(users, profiles, nil, "", false, 0, cfg.DefaultTimezone)
	return service.NewAdminService(users, profiles, auth, nil, cfg.DefaultTimezone)
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("no password given")
}
