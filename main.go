package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"library-circulation/internal/config"
	"library-circulation/internal/logger"
	"library-circulation/library"
)

var version = "dev"

// app carries what every command needs once the root command has run.
type app struct {
	configPath string
	dbPath     string
	jsonOut    bool

	cfg     config.Config
	log     *logger.Logger
	manager *library.LibraryManager
}

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "library",
		Short:         "Library circulation: catalog, members, borrowing and overdue tracking",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "library.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides config)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newServeCmd(a),
		newBookCmd(a),
		newMemberCmd(a),
		newBorrowCmd(a),
		newReturnCmd(a),
		newBorrowingsCmd(a),
		newOverdueCmd(a),
		newNotificationsCmd(a),
		newFineCmd(a),
	)
	return root
}

func (a *app) open() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	a.cfg = cfg

	if a.log, err = logger.New(cfg.LogMode, cfg.LogHashSalt); err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	a.manager, err = library.NewLibraryManager(cfg.DBPath, library.WithLogger(a.log))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	return nil
}

// close is safe to call when open never ran.
func (a *app) close() error {
	if a.log != nil {
		a.log.Sync()
	}
	if a.manager == nil {
		return nil
	}
	err := a.manager.Close()
	a.manager = nil
	return err
}
