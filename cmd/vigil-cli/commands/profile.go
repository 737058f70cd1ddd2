package commands

import (
	"fmt"
	"time"
	"vigil-backend/internal/profiles"
	"vigil-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage tracked profiles.",
}

var (
	editName      *string
	editUrl       *string
	listQuery     *string
	listPage      *int
	listPerPage   *int
	rescanStale   *bool
	rescanOlder   *time.Duration
	rescanWorkers *int
)

func init() {
	editName = profileEditCmd.Flags().String("name", "", "The new name.")
	editUrl = profileEditCmd.Flags().String("url", "", "The new GitHub url.")

	listQuery = profileListCmd.Flags().StringP("query", "q", "", "Only show profiles matching the query.")
	listPage = profileListCmd.Flags().Int("page", 1, "The page to show.")
	listPerPage = profileListCmd.Flags().Int("per-page", profiles.DefaultPerPage, "Profiles per page.")

	rescanStale = profileRescanCmd.Flags().Bool("stale", false, "Rescan every profile not scanned recently instead of a single one.")
	rescanOlder = profileRescanCmd.Flags().Duration("older-than", 24*time.Hour, "How old a scan must be to be stale.")
	rescanWorkers = profileRescanCmd.Flags().Int("concurrency", 4, "Scrapes to run in parallel.")

	profileCmd.AddCommand(profileAddCmd, profileEditCmd, profileListCmd, profileRescanCmd, profileRmCmd)
	rootCmd.AddCommand(profileCmd)
}

func printSaveResult(result profiles.SaveResult) {
	p := result.Profile
	t := newTable()
	t.AppendHeader(table.Row{"field", "value"})
	t.AppendRows([]table.Row{
		{"id", p.ID},
		{"name", p.Name},
		{"github url", p.GithubUrl},
		{"short code", p.ShortCode},
	})
	t.AppendRows(snapshotRows(p.Snapshot))
	t.Render()

	if !result.ScrapeSuccess() {
		fmt.Printf("profile saved, but scraping failed: %s\n", result.ScrapeMessage())
	}
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name> <github url>",
	Short: "Track a new profile and scrape it.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		service, close := openService()
		defer close()

		result, err := service.Create(cmd.Context(), profiles.Input{Name: args[0], GithubUrl: args[1]})
		if err != nil {
			serviceutil.Fatal("failed to create profile", err)
		}
		printSaveResult(result)
	},
}

var profileEditCmd = &cobra.Command{
	Use:   "edit <id> [--name <name>] [--url <github url>]",
	Short: "Change the name or url of a profile and scrape it again.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, close := openService()
		defer close()

		id := parseId(args[0])
		existing, err := service.Find(cmd.Context(), id)
		if err != nil {
			serviceutil.Fatal("failed to find profile", err)
		}

		input := profiles.Input{Name: existing.Name, GithubUrl: existing.GithubUrl}
		if *editName != "" {
			input.Name = *editName
		}
		if *editUrl != "" {
			input.GithubUrl = *editUrl
		}

		result, err := service.Update(cmd.Context(), id, input)
		if err != nil {
			serviceutil.Fatal("failed to update profile", err)
		}
		printSaveResult(result)
	},
}

func formatScannedAt(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.DateTime)
}

var profileListCmd = &cobra.Command{
	Use:   "list [-q <query>] [--page <n>] [--per-page <n>]",
	Short: "List tracked profiles, newest first.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		service, close := openService()
		defer close()

		result, err := service.List(cmd.Context(), profiles.ListInput{
			Query:   *listQuery,
			Page:    *listPage,
			PerPage: *listPerPage,
		}, profiles.DashboardMaxPerPage)
		if err != nil {
			serviceutil.Fatal("failed to list profiles", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"id", "name", "username", "followers", "stars", "contributions", "short code", "scanned"})
		for _, p := range result.Profiles {
			t.AppendRow(table.Row{
				p.ID,
				p.Name,
				p.GithubUsername,
				p.FollowersCount,
				p.StarsCount,
				p.ContributionsLastYear,
				p.ShortCode,
				formatScannedAt(p.LastScannedAt),
			})
		}
		t.AppendFooter(table.Row{
			fmt.Sprintf("page %d/%d", result.Meta.CurrentPage, result.Meta.TotalPages),
			fmt.Sprintf("%d total", result.Meta.TotalCount),
		})
		t.Render()
	},
}

var profileRescanCmd = &cobra.Command{
	Use:   "rescan (<id> | --stale [--older-than <duration>])",
	Short: "Scrape a profile again, or every stale profile.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, close := openService()
		defer close()

		if *rescanStale {
			stats, err := service.RescanStale(cmd.Context(), *rescanOlder, *rescanWorkers)
			if err != nil {
				serviceutil.Fatal("failed to rescan stale profiles", err)
			}
			fmt.Printf("rescanned %d profiles, %d failed\n", stats.Succeeded+stats.Failed, stats.Failed)
			return
		}

		if len(args) != 1 {
			serviceutil.Fatal("a profile id or --stale is required", fmt.Errorf("got %d arguments", len(args)))
		}
		result, err := service.Rescan(cmd.Context(), parseId(args[0]))
		if err != nil {
			serviceutil.Fatal("failed to rescan profile", err)
		}
		fmt.Println(result.Message)
	},
}

var profileRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Stop tracking a profile.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, close := openService()
		defer close()

		name, err := service.Destroy(cmd.Context(), parseId(args[0]))
		if err != nil {
			serviceutil.Fatal("failed to remove profile", err)
		}
		fmt.Printf("removed %s\n", name)
	},
}
