// Command portalctl es la herramienta operativa del portal: chequeos de
// conectividad y administración de cuentas desde la terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/campuslibre/portal/internal/config"
	"github.com/campuslibre/portal/internal/http/services/admin"
	"github.com/campuslibre/portal/internal/security/password"
	"github.com/campuslibre/portal/internal/store/core"
	"github.com/campuslibre/portal/internal/store/pg"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "portalctl",
		Short:        "Herramienta operativa del portal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "ruta al YAML de configuración")

	root.AddCommand(pingCmd(), usersCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openRepo conecta contra el postgres configurado. portalctl opera siempre
// sobre el store real: no tiene modo memoria.
func openRepo(ctx context.Context) (core.Repository, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.DSN == "" {
		return nil, fmt.Errorf("portalctl: storage.dsn (o %s) es requerido", config.EnvDSN)
	}
	return pg.New(ctx, cfg.Storage.DSN, pg.Config{
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MinIdleConns:    cfg.Storage.Postgres.MinIdleConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Verifica la conectividad contra el store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			repo, err := openRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Ping(ctx); err != nil {
				return fmt.Errorf("store unreachable: %w", err)
			}
			fmt.Println("store: ok")
			return nil
		},
	}
}

func usersCmd() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Administración de cuentas",
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "Lista las cuentas registradas",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()

			rows, err := repo.ListUsers(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tROL\tALTA")
			for _, u := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					u.ID, u.Email, u.Role, u.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "máximo de filas")
	list.Flags().IntVar(&offset, "offset", 0, "filas a saltear")

	setRole := &cobra.Command{
		Use:   "set-role <user-id> <admin|editor|viewer>",
		Short: "Cambia el rol de una cuenta",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()

			svc := admin.NewUsersService(admin.UsersDeps{Repo: repo})
			u, err := svc.SetRole(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("rol actualizado: %s → %s\n", u.Email, u.Role)
			return nil
		},
	}

	var email, name, pass, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Da de alta una cuenta (seed de admins)",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, ok := core.ParseRole(role)
			if !ok {
				return fmt.Errorf("rol desconocido %q", role)
			}
			if email == "" || pass == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}

			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()

			hash, err := password.Hash(pass)
			if err != nil {
				return err
			}
			u := &core.User{
				ID:           uuid.NewString(),
				Email:        email,
				Name:         name,
				Role:         parsed,
				PasswordHash: hash,
			}
			if err := repo.CreateUser(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Printf("cuenta creada: %s (%s) rol=%s\n", u.Email, u.ID, u.Role)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "email de la cuenta")
	create.Flags().StringVar(&name, "name", "", "nombre visible")
	create.Flags().StringVar(&pass, "password", "", "password inicial")
	create.Flags().StringVar(&role, "role", "viewer", "rol inicial")

	users.AddCommand(list, setRole, create)
	return users
}
