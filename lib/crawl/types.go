package crawl

import (
	"encoding/json"

	"scrapeless-go/lib/jobs"
)

type DocumentMetadata struct {
	Title             string   `json:"title,omitempty"`
	Description       string   `json:"description,omitempty"`
	Language          string   `json:"language,omitempty"`
	Keywords          string   `json:"keywords,omitempty"`
	Robots            string   `json:"robots,omitempty"`
	OgTitle           string   `json:"ogTitle,omitempty"`
	OgDescription     string   `json:"ogDescription,omitempty"`
	OgUrl             string   `json:"ogUrl,omitempty"`
	OgImage           string   `json:"ogImage,omitempty"`
	OgAudio           string   `json:"ogAudio,omitempty"`
	OgDeterminer      string   `json:"ogDeterminer,omitempty"`
	OgLocale          string   `json:"ogLocale,omitempty"`
	OgLocaleAlternate []string `json:"ogLocaleAlternate,omitempty"`
	OgSiteName        string   `json:"ogSiteName,omitempty"`
	OgVideo           string   `json:"ogVideo,omitempty"`
	DctermsCreated    string   `json:"dctermsCreated,omitempty"`
	DcDateCreated     string   `json:"dcDateCreated,omitempty"`
	DcDate            string   `json:"dcDate,omitempty"`
	DctermsType       string   `json:"dctermsType,omitempty"`
	DcType            string   `json:"dcType,omitempty"`
	DctermsAudience   string   `json:"dctermsAudience,omitempty"`
	DctermsSubject    string   `json:"dctermsSubject,omitempty"`
	DcSubject         string   `json:"dcSubject,omitempty"`
	DcDescription     string   `json:"dcDescription,omitempty"`
	DctermsKeywords   string   `json:"dctermsKeywords,omitempty"`
	ModifiedTime      string   `json:"modifiedTime,omitempty"`
	PublishedTime     string   `json:"publishedTime,omitempty"`
	ArticleTag        string   `json:"articleTag,omitempty"`
	ArticleSection    string   `json:"articleSection,omitempty"`
	SourceURL         string   `json:"sourceURL,omitempty"`
	StatusCode        int      `json:"statusCode,omitempty"`
	Error             string   `json:"error,omitempty"`
}

// Document is a single scraped page, only the formats that were requested
// are filled in.
type Document struct {
	Markdown   string            `json:"markdown,omitempty"`
	Html       string            `json:"html,omitempty"`
	RawHtml    string            `json:"rawHtml,omitempty"`
	Links      []string          `json:"links,omitempty"`
	Extract    json.RawMessage   `json:"extract,omitempty"`
	Screenshot string            `json:"screenshot,omitempty"`
	Metadata   *DocumentMetadata `json:"metadata,omitempty"`
}

type ScrapeOptions struct {
	Formats         []string          `json:"formats,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	IncludeTags     []string          `json:"includeTags,omitempty"`
	ExcludeTags     []string          `json:"excludeTags,omitempty"`
	OnlyMainContent *bool             `json:"onlyMainContent,omitempty"`
	WaitFor         *int              `json:"waitFor,omitempty"`
	Timeout         *int              `json:"timeout,omitempty"`
}

type ScrapeParams struct {
	ScrapeOptions
	BrowserOptions map[string]any `json:"browserOptions,omitempty"`
}

type CrawlParams struct {
	IncludePaths           []string       `json:"includePaths,omitempty"`
	ExcludePaths           []string       `json:"excludePaths,omitempty"`
	MaxDepth               *int           `json:"maxDepth,omitempty"`
	MaxDiscoveryDepth      *int           `json:"maxDiscoveryDepth,omitempty"`
	Limit                  *int           `json:"limit,omitempty"`
	AllowBackwardLinks     *bool          `json:"allowBackwardLinks,omitempty"`
	AllowExternalLinks     *bool          `json:"allowExternalLinks,omitempty"`
	IgnoreSitemap          *bool          `json:"ignoreSitemap,omitempty"`
	ScrapeOptions          *ScrapeOptions `json:"scrapeOptions,omitempty"`
	DeduplicateSimilarURLs *bool          `json:"deduplicateSimilarURLs,omitempty"`
	IgnoreQueryParameters  *bool          `json:"ignoreQueryParameters,omitempty"`
	RegexOnFullURL         *bool          `json:"regexOnFullURL,omitempty"`
	Delay                  *int           `json:"delay,omitempty"`
	BrowserOptions         map[string]any `json:"browserOptions,omitempty"`
}

type JobResponse struct {
	Id      string `json:"id,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type BatchJobResponse struct {
	JobResponse
	InvalidURLs []string `json:"invalidURLs,omitempty"`
}

type ScrapeStatus struct {
	Success *bool
	Status  jobs.Status
	Error   string
	Data    Document
}

// CrawlStatus is also the status of a batch scrape.
type CrawlStatus struct {
	Success   *bool
	Status    jobs.Status
	Total     int
	Completed int
	Error     string
	Data      []Document
	Pages     int
}

type CrawlErrors struct {
	Errors        []map[string]any `json:"errors"`
	RobotsBlocked []string         `json:"robotsBlocked"`
}

// scrapeRequest flattens the url and the optional parameters into a single
// json object.
type scrapeRequest struct {
	Url string `json:"url"`
	*ScrapeParams
}

type batchScrapeRequest struct {
	Urls              []string `json:"urls"`
	IgnoreInvalidURLs bool     `json:"ignoreInvalidURLs"`
	*ScrapeParams
}

type crawlRequest struct {
	Url string `json:"url"`
	*CrawlParams
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func toScrapeStatus(result jobs.Result) (ScrapeStatus, error) {
	status := ScrapeStatus{
		Success: result.Success,
		Status:  result.Status,
		Error:   result.Error,
	}
	if result.Status.Completed() {
		err := result.Decode(&status.Data)
		if err != nil {
			return status, err
		}
	}
	return status, nil
}

func toCrawlStatus(result jobs.Result) (CrawlStatus, error) {
	status := CrawlStatus{
		Success:   result.Success,
		Status:    result.Status,
		Total:     derefInt(result.Total),
		Completed: derefInt(result.Completed),
		Error:     result.Error,
		Pages:     result.Pages,
	}
	// in progress crawls may already carry partial results
	err := result.Decode(&status.Data)
	if err != nil {
		return status, err
	}
	return status, nil
}
