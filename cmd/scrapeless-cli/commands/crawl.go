package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scrapeless-go/lib/crawl"
	"scrapeless-go/lib/jobs"
	"scrapeless-go/lib/resultstore"
	"scrapeless-go/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	crawlLimit    *int
	crawlMaxDepth *int
	crawlInterval *time.Duration
	crawlDb       *string
	crawlFormats  *[]string
)

func init() {
	crawlLimit = crawlCmd.Flags().Int("limit", 10, "The maximum number of pages to crawl.")
	crawlMaxDepth = crawlCmd.Flags().Int("max-depth", 0, "The maximum link depth to follow, 0 means the server default.")
	crawlInterval = crawlCmd.Flags().Duration("interval", 2*time.Second, "How long to wait between status checks.")
	crawlDb = crawlCmd.Flags().String("db", "", "A sqlite database to write the crawled pages to.")
	crawlFormats = crawlCmd.Flags().StringSlice("format", []string{"markdown"}, "The formats to scrape each page in.")

	crawlCmd.AddCommand(crawlStatusCmd, crawlErrorsCmd, crawlCancelCmd)
	rootCmd.AddCommand(crawlCmd)
}

// writeResults prints a summary of a finished job, its documents are written
// to a sqlite database when `dbPath` is set and printed as JSON otherwise.
func writeResults(cmd *cobra.Command, dbPath, kind, url, id string, status crawl.CrawlStatus, started time.Time) error {
	slog.Info(
		"job finished",
		"kind", kind,
		"status", status.Status,
		"documents", len(status.Data),
		"pages", status.Pages,
		"seconds", time.Since(started).Seconds(),
	)

	if dbPath == "" {
		return printJSON(cmd.OutOrStdout(), status.Data)
	}

	database, err := resultstore.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if id == "" {
		id = fmt.Sprintf("%s-%d", kind, started.UnixNano())
	}
	err = resultstore.NewStore(database).Push(cmd.Context(), resultstore.PushRequest{
		Job: resultstore.Job{
			Id:         id,
			Kind:       kind,
			Url:        url,
			Status:     string(status.Status),
			Total:      status.Total,
			Completed:  status.Completed,
			FinishedAt: time.Now(),
		},
		Documents: status.Data,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d documents of job %s to %s\n", len(status.Data), id, dbPath)
	return nil
}

// statusFailure describes an error returned along with a populated crawl
// status, the status table is printed before exiting with it.
func statusFailure(err error) string {
	var failed *jobs.FailedError
	var missing *jobs.DataMissingError
	switch {
	case errors.As(err, &failed):
		return "crawl failed"
	case errors.As(err, &missing):
		return "crawl completed without data"
	}
	return "failed to check crawl status"
}

var crawlCmd = &cobra.Command{
	Use:   "crawl <url> [--limit <n>] [--max-depth <n>] [--db <path/to/output.db>]",
	Short: "Crawls a site starting at a url and waits for the crawl to finish.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		ctx := cmd.Context()

		params := &crawl.CrawlParams{
			Limit:         crawlLimit,
			ScrapeOptions: &crawl.ScrapeOptions{Formats: *crawlFormats},
		}
		if *crawlMaxDepth > 0 {
			params.MaxDepth = crawlMaxDepth
		}

		t1 := time.Now()
		job, err := client.Crawl.Crawl.AsyncCrawlUrl(ctx, args[0], params)
		if err != nil {
			serviceutil.Fatal("failed to submit crawl", err)
		}
		slog.Info("crawl submitted", "id", job.Id)

		status, err := client.Crawl.Crawl.MonitorJobStatus(ctx, job.Id, *crawlInterval)
		if err != nil {
			serviceutil.Fatal("failed to crawl", err)
		}

		err = writeResults(cmd, *crawlDb, "crawl", args[0], job.Id, status, t1)
		if err != nil {
			serviceutil.Fatal("failed to write results", err)
		}
	},
}

var crawlStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Checks the status of a crawl once.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		status, err := client.Crawl.Crawl.CheckCrawlStatus(cmd.Context(), args[0])
		if err != nil && status.Status == "" {
			serviceutil.Fatal("failed to check crawl status", err)
		}

		renderTable(cmd.OutOrStdout(), table.Row{"Id", "Status", "Completed", "Total", "Documents", "Error"}, []table.Row{
			{args[0], status.Status, status.Completed, status.Total, len(status.Data), status.Error},
		})
		if err != nil {
			serviceutil.Fatal(statusFailure(err), err)
		}
	},
}

var crawlErrorsCmd = &cobra.Command{
	Use:   "errors <id>",
	Short: "Prints the errors and robots.txt blocked urls of a crawl.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		res, err := client.Crawl.Crawl.CheckCrawlErrors(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to get crawl errors", err)
		}
		err = printJSON(cmd.OutOrStdout(), res)
		if err != nil {
			serviceutil.Fatal("failed to print crawl errors", err)
		}
	},
}

var crawlCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancels a running crawl.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		res, err := client.Crawl.Crawl.CancelCrawl(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to cancel crawl", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "cancelled:", res.Success)
	},
}
