package commands

import (
	"fmt"

	"scrapeless-go/lib/proxy"
	"scrapeless-go/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	proxyCountry  *string
	proxyDuration *int
	proxyGateway  *string
	proxySession  *string
)

func init() {
	proxyCountry = proxyCmd.Flags().String("country", "ANY", "The country of the exit node.")
	proxyDuration = proxyCmd.Flags().Int("duration", 10, "How long the session keeps its exit node, in minutes.")
	proxyGateway = proxyCmd.Flags().String("gateway", "gw-us.scrapeless.io:8789", "The proxy gateway host and port.")
	proxySession = proxyCmd.Flags().String("session", "", "The session id to use, a new one is generated when empty.")
	rootCmd.AddCommand(proxyCmd)
}

var proxyCmd = &cobra.Command{
	Use:   "proxy [--country <code>] [--duration <minutes>] [--gateway <host:port>] [--session <id>]",
	Short: "Prints a residential proxy url.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}

		sessionId := *proxySession
		if sessionId == "" {
			sessionId, err = proxy.GenerateSessionId()
			if err != nil {
				serviceutil.Fatal("failed to generate session id", err)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), client.Proxies.Url(proxy.Options{
			Country:         *proxyCountry,
			SessionDuration: *proxyDuration,
			SessionId:       sessionId,
			Gateway:         *proxyGateway,
		}))
	},
}
