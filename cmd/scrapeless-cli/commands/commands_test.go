package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scrapeless-go/lib/crawl"
	"scrapeless-go/lib/jobs"
	"scrapeless-go/lib/resultstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestScrapeParams(t *testing.T) {
	params := scrapeParams([]string{"markdown"}, false)
	require.Equal(t, []string{"markdown"}, params.Formats)
	require.Nil(t, params.OnlyMainContent)

	params = scrapeParams([]string{"html"}, true)
	require.NotNil(t, params.OnlyMainContent)
	require.True(t, *params.OnlyMainContent)
}

func TestRenderTable(t *testing.T) {
	var out bytes.Buffer
	renderTable(&out, table.Row{"Id", "Status"}, []table.Row{{"c-1", "completed"}})
	require.Contains(t, out.String(), "c-1")
	require.Contains(t, out.String(), "STATUS")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scrapeless.json5")
	err := os.WriteFile(path, []byte(`{
		"api_key": "from-file",
		"timeout": 1000,
		"max_retries": 2,
	}`), 0600)
	require.NoError(t, err)

	prevConfig, prevKey, prevRetries := *configPath, *apiKey, *retries
	t.Cleanup(func() {
		*configPath, *apiKey, *retries = prevConfig, prevKey, prevRetries
	})

	*configPath = path
	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.ApiKey)
	require.Equal(t, time.Second, cfg.Timeout())
	require.Equal(t, 2, cfg.MaxRetries)

	*apiKey = "from-flag"
	*retries = 0
	cfg, err = loadConfig()
	require.NoError(t, err)
	require.Equal(t, "from-flag", cfg.ApiKey)
	require.Equal(t, 0, cfg.MaxRetries)

	*configPath = filepath.Join(dir, "missing.json5")
	_, err = loadConfig()
	require.NoError(t, err)
}

func TestWriteResults(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)

	status := crawl.CrawlStatus{
		Status:    "completed",
		Total:     2,
		Completed: 2,
		Data:      []crawl.Document{{Markdown: "# a"}, {Markdown: "# b"}},
	}

	err := writeResults(cmd, "", "crawl", "https://example.com", "c-1", status, time.Now())
	require.NoError(t, err)
	require.Contains(t, out.String(), `"markdown": "# a"`)

	out.Reset()
	dbPath := filepath.Join(t.TempDir(), "results.db")
	err = writeResults(cmd, dbPath, "crawl", "https://example.com", "c-1", status, time.Now())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out.String(), "wrote 2 documents of job c-1"))

	database, err := resultstore.OpenDB(dbPath)
	require.NoError(t, err)
	defer database.Close()
	docs, err := resultstore.NewStore(database).Pull(context.Background(), "c-1")
	require.NoError(t, err)
	require.Equal(t, status.Data, docs)
}

func TestStatusFailure(t *testing.T) {
	testCases := []struct {
		err      error
		expected string
	}{
		{err: &jobs.FailedError{Id: "c-1", Status: "failed"}, expected: "crawl failed"},
		{err: &jobs.DataMissingError{Id: "c-1"}, expected: "crawl completed without data"},
		{err: errors.New("connection reset"), expected: "failed to check crawl status"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, statusFailure(test.err))
	}
}
