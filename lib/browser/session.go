// Package browser provisions remote browser sessions and manages the
// extensions and profiles they can load.
package browser

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"scrapeless-go/lib/telemetry"
)

var tracer = telemetry.Tracer("scrapeless.lib.browser")

const (
	DefaultSessionTTL   = 180
	DefaultProxyCountry = "ANY"
)

// SessionOptions configures a browser session, zero values fall back to the
// defaults.
type SessionOptions struct {
	SessionName string
	// SessionTTL is in seconds.
	SessionTTL       int
	SessionRecording *bool
	ProxyCountry     string
	// ProxyUrl takes precedence over ProxyCountry.
	ProxyUrl     string
	Fingerprint  map[string]any
	ExtensionIds string
}

type Session struct {
	BrowserWSEndpoint string
}

func mergeSessionOptions(opts SessionOptions) SessionOptions {
	merged := SessionOptions{
		SessionTTL:   DefaultSessionTTL,
		ProxyCountry: DefaultProxyCountry,
	}
	merged.SessionName = opts.SessionName
	if opts.SessionTTL > 0 {
		merged.SessionTTL = opts.SessionTTL
	}
	merged.SessionRecording = opts.SessionRecording
	if opts.ProxyCountry != "" {
		merged.ProxyCountry = opts.ProxyCountry
	}
	merged.ProxyUrl = opts.ProxyUrl
	merged.Fingerprint = opts.Fingerprint
	merged.ExtensionIds = opts.ExtensionIds
	return merged
}

type Service struct {
	apiKey  string
	baseUrl string
}

// NewService creates a session service for the browser api at `baseUrl`,
// sessions are authenticated with `apiKey`.
func NewService(apiKey, baseUrl string) *Service {
	return &Service{apiKey: apiKey, baseUrl: strings.TrimSuffix(baseUrl, "/")}
}

// CreateSession builds the websocket endpoint of a new browser session. No
// request is made, the session starts when a client connects.
func (s *Service) CreateSession(opts SessionOptions) (Session, error) {
	opts = mergeSessionOptions(opts)

	query := url.Values{}
	set := func(key, value string) {
		if value != "" {
			query.Set(key, value)
		}
	}
	set("token", s.apiKey)
	set("session_name", opts.SessionName)
	set("session_ttl", strconv.Itoa(opts.SessionTTL))
	if opts.SessionRecording != nil {
		set("session_recording", strconv.FormatBool(*opts.SessionRecording))
	}
	if opts.ProxyUrl == "" {
		set("proxy_country", opts.ProxyCountry)
	}
	set("proxy_url", opts.ProxyUrl)
	if len(opts.Fingerprint) > 0 {
		fingerprint, err := json.Marshal(opts.Fingerprint)
		if err != nil {
			return Session{}, fmt.Errorf("encode fingerprint: %w", err)
		}
		set("fingerprint", string(fingerprint))
	}
	set("extension_ids", opts.ExtensionIds)

	protocol := "ws"
	if strings.HasPrefix(s.baseUrl, "https://") {
		protocol = "wss"
	}
	host := strings.TrimPrefix(strings.TrimPrefix(s.baseUrl, "https://"), "http://")

	return Session{
		BrowserWSEndpoint: fmt.Sprintf("%s://%s/browser?%s", protocol, host, query.Encode()),
	}, nil
}
