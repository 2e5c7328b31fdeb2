package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"newsroom/app"
	"newsroom/app/repositories"
	"newsroom/app/repositories/postgres"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// DefaultBackupDir is where db backup writes when --dir is not given.
const DefaultBackupDir = "data/backups"

// NewDBCmd creates the db subcommand and its maintenance commands.
func NewDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Maintain the site's store",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBCleanCmd())
	cmd.AddCommand(newDBBackupCmd())
	cmd.AddCommand(newDBRestoreCmd())
	cmd.AddCommand(newDBMigrateCmd())

	return cmd
}

// storeLocation resolves --database-url to a kind and location. The
// in-memory store has nothing to maintain.
func storeLocation(cmd *cobra.Command) (kind, location string, err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", "", err
	}
	kind, location, err = app.ParseStoreURL(cfg.DatabaseURL)
	if err != nil {
		return "", "", err
	}
	if kind == app.StoreMemory {
		return "", "", oops.Code("STORE_UNSUPPORTED").Errorf("the in-memory store cannot be maintained")
	}
	return kind, location, nil
}

func badgerOnly(kind, operation string) error {
	if kind != app.StoreBadger {
		return oops.Code("STORE_UNSUPPORTED").With("store", kind).
			Hint("use pg_dump and pg_restore for PostgreSQL").
			Errorf("%s is only available for the badger store", operation)
	}
	return nil
}

func newDBInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, location, err := storeLocation(cmd)
			if err != nil {
				return err
			}
			if kind == app.StorePostgres {
				return migrateUp(cmd, location)
			}

			if _, err := os.Stat(location); err == nil {
				cmd.Println("Database already exists. Use 'db clean' first if you want to reinitialize.")
				return nil
			}
			db, err := repositories.OpenBadger(location, nil)
			if err != nil {
				return oops.Code("DB_OPEN_FAILED").With("path", location).Wrap(err)
			}
			if err := db.Close(); err != nil {
				return oops.Code("DB_CLOSE_FAILED").Wrap(err)
			}
			cmd.Println("Database initialized successfully")
			return nil
		},
	}
}

func newDBCleanCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete every user, post and comment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, location, err := storeLocation(cmd)
			if err != nil {
				return err
			}
			if kind == app.StoreBadger {
				if _, err := os.Stat(location); os.IsNotExist(err) {
					cmd.Println("Database is already clean (does not exist)")
					return nil
				}
			}
			if !yes && !confirm(cmd, "Are you sure you want to clean the database? This cannot be undone.") {
				cmd.Println("Operation cancelled")
				return nil
			}

			if kind == app.StorePostgres {
				m, err := postgres.NewMigrator(location)
				if err != nil {
					return err
				}
				defer m.Close()
				if err := m.Down(); err != nil {
					return err
				}
			} else if err := os.RemoveAll(location); err != nil {
				return oops.Code("DB_CLEAN_FAILED").With("path", location).Wrap(err)
			}
			cmd.Println("Database cleaned successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newDBBackupCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a full backup of the badger store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, location, err := storeLocation(cmd)
			if err != nil {
				return err
			}
			if err := badgerOnly(kind, "backup"); err != nil {
				return err
			}
			if _, err := os.Stat(location); os.IsNotExist(err) {
				cmd.Println("No database exists to backup")
				return nil
			}

			path, err := backup(location, dir, time.Now())
			if err != nil {
				return err
			}
			cmd.Printf("Database backed up successfully to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", DefaultBackupDir, "directory for the backup file")
	return cmd
}

func backup(location, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", oops.Code("BACKUP_FAILED").With("dir", dir).Wrap(err)
	}
	db, err := repositories.OpenBadger(location, nil)
	if err != nil {
		return "", oops.Code("DB_OPEN_FAILED").With("path", location).Wrap(err)
	}
	defer db.Close()

	path := filepath.Join(dir, fmt.Sprintf("backup_%d.db", now.Unix()))
	f, err := os.Create(path)
	if err != nil {
		return "", oops.Code("BACKUP_FAILED").With("file", path).Wrap(err)
	}
	defer f.Close()

	if _, err := db.Backup(f, 0); err != nil {
		return "", oops.Code("BACKUP_FAILED").With("file", path).Wrap(err)
	}
	if err := f.Sync(); err != nil {
		return "", oops.Code("BACKUP_FAILED").With("file", path).Wrap(err)
	}
	return path, nil
}

func newDBRestoreCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the badger store with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, location, err := storeLocation(cmd)
			if err != nil {
				return err
			}
			if err := badgerOnly(kind, "restore"); err != nil {
				return err
			}

			file := args[0]
			fi, err := os.Stat(file)
			if err != nil {
				return oops.Code("RESTORE_FAILED").With("file", file).Errorf("backup file does not exist: %s", file)
			}
			if fi.Size() == 0 {
				return oops.Code("RESTORE_FAILED").With("file", file).Errorf("backup file is empty: %s", file)
			}

			if _, err := os.Stat(location); err == nil {
				if !yes && !confirm(cmd, "Existing database found. Do you want to replace it?") {
					cmd.Println("Operation cancelled")
					return nil
				}
				if err := os.RemoveAll(location); err != nil {
					return oops.Code("RESTORE_FAILED").With("path", location).Wrap(err)
				}
			}

			if err := restore(location, file); err != nil {
				return err
			}
			cmd.Println("Database restored successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func restore(location, file string) (err error) {
	db, err := repositories.OpenBadger(location, nil)
	if err != nil {
		return oops.Code("DB_OPEN_FAILED").With("path", location).Wrap(err)
	}
	defer db.Close()

	f, err := os.Open(file)
	if err != nil {
		return oops.Code("RESTORE_FAILED").With("file", file).Wrap(err)
	}
	defer f.Close()

	// Load panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			err = oops.Code("RESTORE_FAILED").With("file", file).Errorf("corrupt backup: %v", r)
		}
	}()
	if err := db.Load(f, 4); err != nil {
		return oops.Code("RESTORE_FAILED").With("file", file).Wrap(err)
	}
	return nil
}

func newDBMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending PostgreSQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, location, err := storeLocation(cmd)
			if err != nil {
				return err
			}
			if kind != app.StorePostgres {
				cmd.Println("The badger store has no schema to migrate")
				return nil
			}
			return migrateUp(cmd, location)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, location, err := storeLocation(cmd)
			if err != nil {
				return err
			}
			if kind != app.StorePostgres {
				return oops.Code("STORE_UNSUPPORTED").With("store", kind).Errorf("migrations apply to PostgreSQL only")
			}
			m, err := postgres.NewMigrator(location)
			if err != nil {
				return err
			}
			defer m.Close()
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			cmd.Printf("version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	return cmd
}

func migrateUp(cmd *cobra.Command, databaseURL string) error {
	m, err := postgres.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	cmd.Println("Running migrations...")
	if err := m.Up(); err != nil {
		return err
	}
	cmd.Println("Migrations completed successfully")
	return nil
}
