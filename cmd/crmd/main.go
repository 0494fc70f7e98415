// ABOUTME: Reference backend binary serving the CRM REST API on SQLite
// ABOUTME: Subcommands run the server, manage migrations and bootstrap an admin account
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Duckiduc/omw-crm-sub001/config"
	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/server"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

const version = "0.1.0"

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:    "crmd",
		Usage:   "Reference REST backend for omw-crm",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "config file (default: $XDG_CONFIG_HOME/omw-crm/config.toml)"},
			&cli.StringFlag{Name: "db-path", Usage: "SQLite database path"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			createAdminCommand(),
			purgeSessionsCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(c *cli.Command) (config.ServerConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.ServerConfig{}, err
	}
	if p := c.String("db-path"); p != "" {
		cfg.Server.DBPath = p
	}
	return cfg.Server, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (default from config, :3001)"},
			&cli.StringFlag{Name: "origins", Usage: "comma separated CORS origins"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if a := c.String("addr"); a != "" {
				cfg.Addr = a
			}
			if o := c.String("origins"); o != "" {
				cfg.AllowOrigins = strings.Split(o, ",")
			}

			database, err := db.OpenDatabase(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()
			log.Printf("CRM database: %s", cfg.DBPath)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.NewServer(database, cfg).Start(ctx, cfg.Addr)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "backup", Value: true, Usage: "copy the database file before migrating"},
		},
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Print the applied schema version",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					database, err := db.OpenDatabase(cfg.DBPath)
					if err != nil {
						return fmt.Errorf("failed to open database: %w", err)
					}
					defer func() { _ = database.Close() }()

					v, err := db.SchemaVersion(ctx, database)
					if err != nil {
						return fmt.Errorf("failed to read schema version: %w", err)
					}
					fmt.Printf("Schema version: %d\n", v)
					return nil
				},
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.Bool("backup") {
				if err := backupDatabase(cfg.DBPath); err != nil {
					return err
				}
			}
			database, err := db.OpenDatabase(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer func() { _ = database.Close() }()
			log.Println("Migration completed successfully")
			return nil
		},
	}
}

// backupDatabase copies path next to itself with a timestamp suffix.
// A database that does not exist yet needs no backup.
func backupDatabase(path string) error {
	input, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(backupPath, input, 0600); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	log.Printf("Backup created: %s", backupPath)
	return nil
}

func createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create an admin account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("CRMD_ADMIN_PASSWORD")},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			values := map[string]string{
				"name":     c.String("name"),
				"email":    c.String("email"),
				"password": c.String("password"),
				"role":     string(models.RoleAdmin),
			}
			if err := validate.UserCreateForm.Validate(values).Err(); err != nil {
				return err
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			database, err := db.OpenDatabase(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			user := &models.User{Name: values["name"], Email: values["email"], Role: models.RoleAdmin}
			if err := db.CreateUser(database, user, values["password"]); err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}
			fmt.Printf("✓ Admin created: %s (ID: %s)\n", user.Email, user.ID)
			return nil
		},
	}
}

func purgeSessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "purge-sessions",
		Usage: "Delete expired session tokens",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			database, err := db.OpenDatabase(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			n, err := db.PurgeExpiredSessions(database)
			if err != nil {
				return fmt.Errorf("failed to purge sessions: %w", err)
			}
			fmt.Printf("✓ Removed %d expired session(s)\n", n)
			return nil
		},
	}
}
