// Command migrate manages the Circle schema: SQL migrations, AutoMigrate,
// rollback, and a check that the relationship constraints are in place.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"circle/internal/config"
	"circle/internal/database"

	"gorm.io/gorm"
)

type command struct {
	help string
	run  func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"up": {"apply pending SQL migrations", func(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
		return nil
	}},
	"auto": {"run gorm AutoMigrate", func(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
		return nil
	}},
	"status": {"show the schema plan, migrations and relationship guards", status},
	"verify": {"exit non-zero if a relationship guard is missing", verify},
	"down": {"roll back one migration: down <version>", func(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
		if len(args) < 1 {
			return fmt.Errorf("down needs a version")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %d", version)
		return nil
	}},
}

func main() {
	flag.Usage = usage
	flag.Parse()
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(flag.Arg(0)))]
	if !ok {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	if err := cmd.run(context.Background(), db, cfg, flag.Args()[1:]); err != nil {
		log.Fatal(err)
	}
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(os.Stderr, "usage: migrate <command> [args]")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-7s %s\n", name, commands[name].help)
	}
}

func status(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	st, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	log.Printf("mode=%s env=%s run_sql=%t run_auto=%t", st.Mode, st.Environment, st.WillRunSQL, st.WillRunAutoMigrate)
	log.Printf("applied versions: %v", st.AppliedVersions)
	for _, m := range st.PendingMigrations {
		log.Printf("pending: %s", m)
	}

	guards, err := database.CheckGuards(ctx, db)
	if err != nil {
		return err
	}
	for _, g := range guards {
		state := "ok"
		if !g.Present {
			state = "MISSING"
		}
		log.Printf("guard %-34s %-7s %s", g.Name, state, g.Protects)
	}
	return nil
}

func verify(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	guards, err := database.CheckGuards(ctx, db)
	if err != nil {
		return err
	}
	missing := database.MissingGuards(guards)
	if len(missing) == 0 {
		log.Printf("all %d relationship guards present", len(guards))
		return nil
	}
	names := make([]string, len(missing))
	for i, g := range missing {
		names[i] = g.Name
	}
	return fmt.Errorf("missing relationship guards: %s (run `migrate up`)", strings.Join(names, ", "))
}
