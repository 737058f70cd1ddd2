package commands

import (
	"log/slog"
	"time"
	"vigil-backend/internal/components/telemetry"
	"vigil-backend/internal/scrapers/github"
	"vigil-backend/lib/restyutil"
	"vigil-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scrapeDump *string

func init() {
	scrapeDump = scrapeCmd.Flags().String("dump", "", "Write every http exchange into this directory.")
	rootCmd.AddCommand(scrapeCmd)
}

func snapshotRows(snapshot github.Snapshot) []table.Row {
	return []table.Row{
		{"username", snapshot.GithubUsername},
		{"followers", snapshot.FollowersCount},
		{"following", snapshot.FollowingCount},
		{"stars", snapshot.StarsCount},
		{"contributions (last year)", snapshot.ContributionsLastYear},
		{"avatar", snapshot.AvatarUrl},
		{"organization", snapshot.Organization},
		{"location", snapshot.Location},
	}
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url> [--dump <dir>]",
	Short: "Scrapes a GitHub profile page and prints what was found, nothing is stored.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var dump restyutil.InstrumentOutput
		if *scrapeDump != "" {
			output, err := restyutil.NewFilesystemOutput(*scrapeDump)
			if err != nil {
				serviceutil.Fatal("failed to create dump directory", err)
			}
			dump = output
		}

		scraper := scraperConfig().NewScraper(telemetry.SlogAPI{}, dump)

		t1 := time.Now()
		snapshot, err := scraper.Scrape(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to scrape profile", err)
		}
		slog.Debug("scraping time", "seconds", time.Since(t1).Seconds())

		t := newTable()
		t.AppendHeader(table.Row{"field", "value"})
		t.AppendRows(snapshotRows(snapshot))
		t.Render()
	},
}
