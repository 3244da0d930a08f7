package commands

import (
	"fmt"
	"net/url"
	"time"

	"scrapeless-go/lib/crawl"
	"scrapeless-go/lib/htmlutil"
	"scrapeless-go/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeFormats  *[]string
	scrapeInterval *time.Duration
	scrapeSelect   *string
	scrapeAsync    *bool
	scrapeMainOnly *bool
	scrapeLinks    *bool

	batchFormats       *[]string
	batchInterval      *time.Duration
	batchIgnoreInvalid *bool
	batchDb            *string
)

func init() {
	scrapeFormats = scrapeCmd.Flags().StringSlice("format", []string{"markdown"}, "The formats to scrape (markdown, html, rawHtml, links, screenshot).")
	scrapeInterval = scrapeCmd.Flags().Duration("interval", 2*time.Second, "How long to wait between status checks.")
	scrapeSelect = scrapeCmd.Flags().String("select", "", "A css selector, prints the text of matching elements of the scraped html instead of the document.")
	scrapeAsync = scrapeCmd.Flags().Bool("async", false, "Only submit the job and print its id.")
	scrapeMainOnly = scrapeCmd.Flags().Bool("main-only", false, "Only keep the main content of the page.")
	scrapeLinks = scrapeCmd.Flags().Bool("links", false, "Prints the links of the scraped html, resolved against the url.")
	rootCmd.AddCommand(scrapeCmd)

	batchFormats = batchScrapeCmd.Flags().StringSlice("format", []string{"markdown"}, "The formats to scrape.")
	batchInterval = batchScrapeCmd.Flags().Duration("interval", 2*time.Second, "How long to wait between status checks.")
	batchIgnoreInvalid = batchScrapeCmd.Flags().Bool("ignore-invalid", false, "Skip invalid urls instead of failing the batch.")
	batchDb = batchScrapeCmd.Flags().String("db", "", "A sqlite database to write the scraped documents to.")
	rootCmd.AddCommand(batchScrapeCmd)
}

func scrapeParams(formats []string, mainOnly bool) *crawl.ScrapeParams {
	params := &crawl.ScrapeParams{}
	params.Formats = formats
	if mainOnly {
		params.OnlyMainContent = &mainOnly
	}
	return params
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url> [--format <format>...] [--select <css>] [--links] [--async]",
	Short: "Scrapes a single url and prints the resulting document.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		ctx := cmd.Context()

		formats := *scrapeFormats
		if *scrapeSelect != "" || *scrapeLinks {
			formats = append(formats, "html")
		}
		params := scrapeParams(formats, *scrapeMainOnly)

		if *scrapeAsync {
			res, err := client.Crawl.Scrape.AsyncScrapeUrl(ctx, args[0], params)
			if err != nil {
				serviceutil.Fatal("failed to submit scrape", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Id)
			return
		}

		status, err := client.Crawl.Scrape.ScrapeUrl(ctx, args[0], params, *scrapeInterval)
		if err != nil {
			serviceutil.Fatal("failed to scrape", err)
		}

		switch {
		case *scrapeSelect != "":
			matches, err := htmlutil.SelectText(ctx, status.Data.Html, *scrapeSelect)
			if err != nil {
				serviceutil.Fatal("failed to parse html", err)
			}
			for _, text := range matches {
				fmt.Fprintln(cmd.OutOrStdout(), text)
			}
		case *scrapeLinks:
			base, err := url.Parse(args[0])
			if err != nil {
				serviceutil.Fatal("failed to parse url", err)
			}
			anchors, err := htmlutil.GetAnchors(ctx, status.Data.Html, base)
			if err != nil {
				serviceutil.Fatal("failed to parse html", err)
			}
			rows := make([]table.Row, len(anchors))
			for i, a := range anchors {
				rows[i] = table.Row{a.Name, a.Href}
			}
			renderTable(cmd.OutOrStdout(), table.Row{"Name", "Href"}, rows)
		default:
			err = printJSON(cmd.OutOrStdout(), status.Data)
			if err != nil {
				serviceutil.Fatal("failed to print document", err)
			}
		}
	},
}

var batchScrapeCmd = &cobra.Command{
	Use:   "batch-scrape <url>... [--format <format>...] [--db <path/to/output.db>]",
	Short: "Scrapes several urls in one job.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}

		t1 := time.Now()
		status, err := client.Crawl.Scrape.BatchScrapeUrls(
			cmd.Context(),
			args,
			scrapeParams(*batchFormats, false),
			*batchInterval,
			*batchIgnoreInvalid,
		)
		if err != nil {
			serviceutil.Fatal("failed to batch scrape", err)
		}

		err = writeResults(cmd, *batchDb, "batch-scrape", args[0], "", status, t1)
		if err != nil {
			serviceutil.Fatal("failed to write results", err)
		}
	},
}
