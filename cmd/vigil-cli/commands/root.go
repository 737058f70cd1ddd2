package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"vigil-backend/internal/components/chrono"
	"vigil-backend/internal/components/telemetry"
	"vigil-backend/internal/db"
	"vigil-backend/internal/profiles"
	"vigil-backend/internal/scrapers/github"
	"vigil-backend/internal/shortcode"
	configsqlite "vigil-backend/lib/configutil/sqlite"
	"vigil-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	dbPath  *string
	verbose *bool
)

var rootCmd = &cobra.Command{
	Use:   "vigil-cli",
	Short: "vigil-cli is a CLI for scraping and managing tracked GitHub profiles.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	dbPath = rootCmd.PersistentFlags().String("db", "<dev_state>/vigil.db", "The database to read and write profiles to.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func scraperConfig() github.Config {
	return github.Config{GithubToken: os.Getenv("GITHUB_TOKEN")}
}

// openService opens the database selected by --db, the returned function closes it.
func openService() (*profiles.Service, func()) {
	database, err := configsqlite.Struct{File: *dbPath}.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}

	clock, err := chrono.NewStandardImpl("")
	if err != nil {
		serviceutil.Fatal("failed to load timezone", err)
	}

	tel := telemetry.SlogAPI{}
	service := profiles.NewService(
		database,
		scraperConfig().NewScraper(tel, nil),
		shortcode.NewGenerator(shortcode.CryptoSource{}),
		clock,
		tel,
		profiles.Options{},
	)
	return service, func() {
		database.Close()
	}
}

func parseId(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		serviceutil.Fatal("invalid profile id", err)
	}
	return id
}
