package commands

import (
	"scrapeless-go/lib/actor"
	"scrapeless-go/lib/serviceutil"
	"scrapeless-go/lib/storage"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	datasetsPage     *int
	datasetsPageSize *int
	datasetsActor    *string
	runsPage         *int
	runsPageSize     *int
)

func init() {
	datasetsPage = datasetsListCmd.Flags().Int("page", 1, "The page to list.")
	datasetsPageSize = datasetsListCmd.Flags().Int("page-size", 10, "The number of datasets per page.")
	datasetsActor = datasetsListCmd.Flags().String("actor", "", "Only list the datasets of an actor.")
	datasetsCmd.AddCommand(datasetsListCmd)
	rootCmd.AddCommand(datasetsCmd)

	runsPage = runsListCmd.Flags().Int("page", 1, "The page to list.")
	runsPageSize = runsListCmd.Flags().Int("page-size", 10, "The number of runs per page.")
	runsCmd.AddCommand(runsListCmd)
	rootCmd.AddCommand(runsCmd)
}

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Commands for actor datasets.",
}

var datasetsListCmd = &cobra.Command{
	Use:   "list [--page <n>] [--page-size <n>] [--actor <id>]",
	Short: "Lists datasets.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		res, err := client.Storage.Dataset.ListDatasets(cmd.Context(), storage.DatasetListParams{
			PaginationParams: storage.PaginationParams{Page: *datasetsPage, PageSize: *datasetsPageSize},
			ActorId:          *datasetsActor,
		})
		if err != nil {
			serviceutil.Fatal("failed to list datasets", err)
		}

		rows := make([]table.Row, len(res.Items))
		for i, d := range res.Items {
			rows[i] = table.Row{d.Id, d.Name, d.ActorId, d.RunId, d.UpdatedAt}
		}
		renderTable(cmd.OutOrStdout(), table.Row{"Id", "Name", "Actor", "Run", "Updated"}, rows)
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Commands for actor runs.",
}

var runsListCmd = &cobra.Command{
	Use:   "list [--page <n>] [--page-size <n>]",
	Short: "Lists actor runs.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		res, err := client.Actor.GetRunList(cmd.Context(), actor.RunListParams{
			Page:     *runsPage,
			PageSize: *runsPageSize,
		})
		if err != nil {
			serviceutil.Fatal("failed to list runs", err)
		}

		rows := make([]table.Row, len(res.Items))
		for i, r := range res.Items {
			rows[i] = table.Row{r.RunId, r.ActorId, r.Status, r.StartedAt, r.FinishedAt}
		}
		renderTable(cmd.OutOrStdout(), table.Row{"Run", "Actor", "Status", "Started", "Finished"}, rows)
	},
}
