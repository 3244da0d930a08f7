package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scrapeless-go/lib/browser"
	"scrapeless-go/lib/serviceutil"

	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"
)

var (
	sessionName         *string
	sessionTTL          *int
	sessionProxyCountry *string
	sessionProxyUrl     *string
	sessionOpen         *string
)

func init() {
	sessionName = browserSessionCmd.Flags().String("name", "", "The name of the session.")
	sessionTTL = browserSessionCmd.Flags().Int("ttl", browser.DefaultSessionTTL, "How long the session may live, in seconds.")
	sessionProxyCountry = browserSessionCmd.Flags().String("proxy-country", "", "The proxy country of the browser.")
	sessionProxyUrl = browserSessionCmd.Flags().String("proxy-url", "", "A custom proxy for the browser, takes precedence over --proxy-country.")
	sessionOpen = browserSessionCmd.Flags().String("open", "", "Connects to the session, opens the url and prints the page title.")

	browserCmd.AddCommand(browserSessionCmd)
	rootCmd.AddCommand(browserCmd)
}

var browserCmd = &cobra.Command{
	Use:   "browser",
	Short: "Commands for remote browser sessions.",
}

// openPage navigates a connected session to `url` and returns the page title.
func openPage(ctx context.Context, session browser.Session, url string) (string, error) {
	browserCtx, cancel := browser.Connect(ctx, session)
	defer cancel()

	var title string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Title(&title),
	)
	return title, err
}

var browserSessionCmd = &cobra.Command{
	Use:   "session [--name <name>] [--ttl <seconds>] [--proxy-country <code>] [--proxy-url <url>] [--open <url>]",
	Short: "Prints the websocket endpoint of a new browser session.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}

		session, err := client.Browser.CreateSession(browser.SessionOptions{
			SessionName:  *sessionName,
			SessionTTL:   *sessionTTL,
			ProxyCountry: *sessionProxyCountry,
			ProxyUrl:     *sessionProxyUrl,
		})
		if err != nil {
			serviceutil.Fatal("failed to create session", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), session.BrowserWSEndpoint)

		if *sessionOpen == "" {
			return
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(*sessionTTL)*time.Second)
		defer cancel()

		t1 := time.Now()
		title, err := openPage(ctx, session, *sessionOpen)
		if err != nil {
			serviceutil.Fatal("failed to open page", err)
		}
		slog.Info("opened page", "url", *sessionOpen, "seconds", time.Since(t1).Seconds())
		fmt.Fprintln(cmd.OutOrStdout(), title)
	},
}
