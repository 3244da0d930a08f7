// Package proxy formats residential proxy urls.
package proxy

import (
	"fmt"
	"strconv"
	"time"

	random "github.com/mazen160/go-random"
)

const sessionIdCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

type Options struct {
	Country string
	// SessionDuration is in minutes.
	SessionDuration int
	SessionId       string
	Gateway         string
}

type Service struct {
	apiKey string
}

func NewService(apiKey string) *Service {
	return &Service{apiKey: apiKey}
}

// Url returns the proxy url for a sticky residential session.
func (s *Service) Url(opts Options) string {
	return fmt.Sprintf(
		"http://CHANNEL-proxy.residential-country_%s-r_%dm-s_%s:%s@%s",
		opts.Country, opts.SessionDuration, opts.SessionId, s.apiKey, opts.Gateway,
	)
}

// GenerateSessionId returns "<unix time in hex>-<8 random [a-z0-9]>".
func GenerateSessionId() (string, error) {
	return generateSessionId(time.Now())
}

func generateSessionId(now time.Time) (string, error) {
	suffix, err := random.Random(8, sessionIdCharset, true)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(now.Unix(), 16) + "-" + suffix, nil
}
