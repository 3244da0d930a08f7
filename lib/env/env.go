// Package env exposes the environment variables read by the SDK and the
// actor runtime.
package env

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

type Name string

const (
	BaseApiUrl    Name = "SCRAPELESS_BASE_API_URL"
	ActorApiUrl   Name = "SCRAPELESS_ACTOR_API_URL"
	StorageApiUrl Name = "SCRAPELESS_STORAGE_API_URL"
	BrowserApiUrl Name = "SCRAPELESS_BROWSER_API_URL"
	CrawlApiUrl   Name = "SCRAPELESS_CRAWL_API_URL"
	ApiKey        Name = "SCRAPELESS_API_KEY"
	TeamId        Name = "SCRAPELESS_TEAM_ID"

	// injected by the actor runtime
	ActorId Name = "SCRAPELESS_ACTOR_ID"
	RunId   Name = "SCRAPELESS_RUN_ID"
	Input   Name = "SCRAPELESS_INPUT"

	DatasetId     Name = "SCRAPELESS_DATASET_ID"
	KvNamespaceId Name = "SCRAPELESS_KV_NAMESPACE_ID"
	BucketId      Name = "SCRAPELESS_BUCKET_ID"
	QueueId       Name = "SCRAPELESS_QUEUE_ID"
)

// All lists every known variable, in declaration order.
var All = []Name{
	BaseApiUrl, ActorApiUrl, StorageApiUrl, BrowserApiUrl, CrawlApiUrl, ApiKey, TeamId,
	ActorId, RunId, Input,
	DatasetId, KvNamespaceId, BucketId, QueueId,
}

var loadDotenv sync.Once

func load() {
	loadDotenv.Do(func() {
		// a missing .env is the common case
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load .env", "err", err)
		}
	})
}

// Lookup returns the value of an environment variable and whether it was set.
// A .env file in the working directory is loaded on first use, it never
// overrides variables that are already set.
func Lookup(name Name) (string, bool) {
	load()
	return os.LookupEnv(string(name))
}

// Get returns the value of a variable that must be defined.
func Get(name Name) (string, error) {
	value, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not defined", name)
	}
	return value, nil
}

func GetWithDefault(name Name, defaultValue string) string {
	value, ok := Lookup(name)
	if !ok || value == "" {
		return defaultValue
	}
	return value
}

// Log writes every known variable at debug level, the api key is redacted.
func Log() {
	for _, name := range All {
		value, ok := Lookup(name)
		if ok && name == ApiKey && value != "" {
			value = "<redacted>"
		}
		slog.Debug("environment", "name", string(name), "value", value, "set", ok)
	}
}
