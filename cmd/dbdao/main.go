package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/koba/db-dao/internal/database"
	"github.com/koba/db-dao/internal/diff"
	"github.com/koba/db-dao/internal/entity"
	"github.com/koba/db-dao/internal/generator"
	"github.com/koba/db-dao/internal/introspect"
	"github.com/koba/db-dao/internal/schema"
	"github.com/koba/db-dao/internal/snapshot"
)

var (
	verbose     bool
	tables      []string
	concurrency int
	outputDir   string
	dialectFlag string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dbdao",
	Short: "Database catalog and record mapping tool",
	Long:  `A tool to introspect database catalogs, run mapped queries and diff schema snapshots.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	SilenceUsage: true,
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables",
	Args:  cobra.NoArgs,
	RunE:  runTables,
}

var columnsCmd = &cobra.Command{
	Use:   "columns <table>",
	Short: "Show the columns of a table as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runColumns,
}

var queryCmd = &cobra.Command{
	Use:   "query <sql> [params...]",
	Short: "Run SQL with $n parameters and print the rows as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [name]",
	Short: "Create a schema snapshot",
	Long:  `Introspect the database and store its table definitions in an SQLite snapshot.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSnapshot,
}

var diffCmd = &cobra.Command{
	Use:   "diff <snapshot1> <snapshot2>",
	Short: "Compare two snapshots",
	Long:  `Compare two schema snapshots and display the differences.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <snapshot1> <snapshot2>",
	Short: "Generate migration SQL",
	Long:  `Generate DDL statements to migrate from snapshot1 to snapshot2.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log executed SQL")

	snapshotCmd.Flags().StringSliceVar(&tables, "tables", nil, "Comma-separated list of tables to snapshot (default: all tables)")
	snapshotCmd.Flags().IntVar(&concurrency, "concurrency", 4, "Tables introspected in parallel (0: unlimited)")
	snapshotCmd.Flags().StringVar(&outputDir, "output-dir", "./snapshots", "Output directory for snapshots")

	migrateCmd.Flags().StringVar(&dialectFlag, "dialect", "", "Target dialect (default: the one recorded in snapshot2)")

	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(columnsCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(migrateCmd)
}

// connect opens the database described by the environment
func connect(ctx context.Context) (database.Database, error) {
	config, err := database.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewDatabase(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func newIntrospector(db database.Database) (introspect.Introspector, error) {
	return introspect.New(db.Dialect(), entity.New(db), db.Config().Schema)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runTables(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	in, err := newIntrospector(db)
	if err != nil {
		return err
	}
	names, err := in.GetAllTables(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name.CompleteName())
	}
	return nil
}

func runColumns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	in, err := newIntrospector(db)
	if err != nil {
		return err
	}
	columns, err := in.GetColumns(ctx, schema.ParseTableName(args[0]))
	if err != nil {
		return err
	}
	return printJSON(columns)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	params := make([]any, len(args)-1)
	for i, p := range args[1:] {
		params[i] = p
	}
	rows, err := entity.New(db).ExecuteSQL(ctx, args[0], params...)
	if err != nil {
		return err
	}
	return printJSON(rows)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	in, err := newIntrospector(db)
	if err != nil {
		return err
	}

	// Generate snapshot filename
	var filename string
	if len(args) > 0 {
		filename = args[0]
		if !strings.HasSuffix(filename, ".db") {
			filename += ".db"
		}
	} else {
		timestamp := time.Now().Format("2006-01-02-15-04-05")
		filename = fmt.Sprintf("%s-%s.db", filepath.Base(db.Config().Database), timestamp)
	}
	outputPath := filepath.Join(outputDir, filename)

	names := make([]schema.TableName, len(tables))
	for i, t := range tables {
		names[i] = schema.ParseTableName(t)
	}

	fmt.Printf("Creating snapshot: %s\n", outputPath)
	err = snapshot.CreateSnapshot(ctx, in, outputPath, snapshot.Options{
		Tables:      names,
		Concurrency: concurrency,
		Dialect:     db.Dialect(),
	})
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	fmt.Printf("Snapshot created successfully: %s\n", outputPath)
	return nil
}

func loadSnapshots(ctx context.Context, path1, path2 string) (*snapshot.Snapshot, *snapshot.Snapshot, error) {
	slog.Debug("loading snapshot", "path", path1)
	snap1, err := snapshot.LoadSnapshot(ctx, path1)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load snapshot1: %w", err)
	}

	slog.Debug("loading snapshot", "path", path2)
	snap2, err := snapshot.LoadSnapshot(ctx, path2)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load snapshot2: %w", err)
	}
	return snap1, snap2, nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	snap1, snap2, err := loadSnapshots(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("=== Comparing snapshots ===\n\n")
	result := diff.Compare(snap1, snap2)
	diff.Display(os.Stdout, result)
	if result.Unchanged > 0 {
		fmt.Printf("%d table(s) unchanged.\n", result.Unchanged)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	snap1, snap2, err := loadSnapshots(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	dialectName := dialectFlag
	if dialectName == "" {
		dialectName = snap2.Metadata["db_type"]
	}
	dialect, err := database.ParseDialect(dialectName)
	if err != nil {
		return fmt.Errorf("cannot tell the target dialect, use --dialect: %w", err)
	}

	result := diff.Compare(snap1, snap2)

	fmt.Printf("-- Migration SQL from %s to %s\n", filepath.Base(args[0]), filepath.Base(args[1]))
	fmt.Printf("-- Generated at: %s\n\n", time.Now().Format(time.RFC3339))
	fmt.Println(generator.GenerateSQL(result, dialect))
	return nil
}
