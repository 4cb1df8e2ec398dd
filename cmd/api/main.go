package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcclellann/ledgerbook/pkg/config"
	"github.com/mcclellann/ledgerbook/pkg/export"
	"github.com/mcclellann/ledgerbook/pkg/ledger"
	"github.com/mcclellann/ledgerbook/pkg/models"
	"github.com/mcclellann/ledgerbook/pkg/settings"
	"github.com/mcclellann/ledgerbook/pkg/store"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:   "ledgerbook",
	Short: "Loan interest and land activity bookkeeping",
	Long: `ledgerbook keeps a personal book of money lent and borrowed, with
calendar-based interest, and of paid land work settled per owner.
Without a subcommand it serves the HTTP API.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE:  runServe,
}

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recalculate the accrued amount of every open loan as of today",
	RunE:  runRecalc,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export loans as CSV, or one person's statement as text",
	RunE:  runExport,
}

var langCmd = &cobra.Command{
	Use:       "lang [en|te|toggle]",
	Short:     "Show or change the report language",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(settings.English), string(settings.Telugu), "toggle"},
	RunE:      runLang,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "ledgerbook.toml", "Path to the TOML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides [database] path)")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "addr", "", "Listen address (overrides [server] addr)")

	exportCmd.Flags().StringP("out", "o", "", "Write to this file instead of stdout")
	exportCmd.Flags().StringP("person", "p", "", "Write the text statement for this person")

	rootCmd.AddCommand(serveCmd, recalcCmd, exportCmd, langCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is what every subcommand needs: resolved config, an open store and the
// loaded preferences.
type app struct {
	cfg     config.Config
	storage *store.SQLiteStore
	prefs   *settings.Manager
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}

	sqliteStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite store: %w", err)
	}

	def, _ := settings.ParseLanguage(cfg.Locale.Default)
	prefs, err := settings.Load(ctx, sqliteStore, def)
	if err != nil {
		// Keep the configured default.
		log.Printf("Error loading settings: %v", err)
	}
	return &app{cfg: cfg, storage: sqliteStore, prefs: prefs}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.storage.Close()

	server := NewServer(a.storage, a.prefs)

	if a.cfg.Recalc.Enabled {
		interval, _ := a.cfg.RecalcInterval()
		scheduler := newRecalcScheduler(server.ledger, interval)
		scheduler.Start()
		defer scheduler.Stop()
	}

	httpServer := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           server.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", a.cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runRecalc(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.storage.Close()

	l := ledger.NewLedger(a.storage)
	report, err := l.RecalculateLoans(cmd.Context(), l.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %d loans (%d skipped, %d failed)\n", report.Updated, report.Skipped, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d loans could not be written back", report.Failed)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("out")
	person, _ := cmd.Flags().GetString("person")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.storage.Close()

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	l := ledger.NewLedger(a.storage)
	if person != "" {
		summary, err := l.Person(cmd.Context(), person)
		if err != nil {
			return err
		}
		return export.WritePersonReport(w, summary, a.prefs.Translator())
	}

	loans, err := l.ListLoans(cmd.Context(), store.ListOptions{})
	if err != nil {
		return err
	}
	rows := make([]models.LoanTransaction, len(loans))
	for i, loan := range loans {
		rows[i] = *loan
	}
	return export.WriteLoansCSV(w, rows)
}

func runLang(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.storage.Close()

	current := a.prefs.Current()
	switch {
	case len(args) == 0:
	case args[0] == "toggle":
		current, err = a.prefs.Toggle(cmd.Context())
	default:
		var lang settings.Language
		if lang, err = settings.ParseLanguage(args[0]); err == nil {
			current, err = a.prefs.SetLanguage(cmd.Context(), lang)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), current.Language)
	return nil
}
