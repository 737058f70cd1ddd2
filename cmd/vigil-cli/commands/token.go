package commands

import (
	"fmt"
	"vigil-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage api tokens.",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <label>",
	Short: "Create a new api token, it is only shown once.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, close := openService()
		defer close()

		token, err := service.IssueApiToken(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to issue token", err)
		}
		fmt.Println(token)
	},
}

func init() {
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}
