package scraping

import (
	"context"
	"encoding/json"
	"fmt"
)

type SerpRequest struct {
	Query    string            `json:"q"`
	Country  string            `json:"gl,omitempty"`
	Language string            `json:"hl,omitempty"`
	Device   string            `json:"device,omitempty"`
	Page     int               `json:"page,omitempty"`
	PageSize int               `json:"num,omitempty"`
	Engine   string            `json:"engine,omitempty"`
	Params   map[string]string `json:"-"`
}

func (r SerpRequest) input() (map[string]any, error) {
	encoded, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	input := map[string]any{}
	err = json.Unmarshal(encoded, &input)
	if err != nil {
		return nil, err
	}
	for k, v := range r.Params {
		input[k] = v
	}
	return input, nil
}

type SerpOrganicResult struct {
	Position   int              `json:"position"`
	Title      string           `json:"title"`
	Url        string           `json:"url"`
	DisplayUrl string           `json:"displayUrl"`
	Snippet    string           `json:"snippet"`
	CachedUrl  string           `json:"cachedUrl,omitempty"`
	RelatedUrl string           `json:"relatedUrl,omitempty"`
	Sitelinks  []map[string]any `json:"sitelinks,omitempty"`
}

type SerpAdResult struct {
	Position   int              `json:"position"`
	Title      string           `json:"title"`
	Url        string           `json:"url"`
	DisplayUrl string           `json:"displayUrl"`
	Snippet    string           `json:"snippet"`
	Sitelinks  []map[string]any `json:"sitelinks,omitempty"`
}

type SerpLocalResult struct {
	Position    int               `json:"position"`
	Title       string            `json:"title"`
	Address     string            `json:"address"`
	Website     string            `json:"website,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Rating      float64           `json:"rating,omitempty"`
	ReviewCount int               `json:"reviewCount,omitempty"`
	Categories  []string          `json:"categories,omitempty"`
	Hours       map[string]string `json:"hours,omitempty"`
	Latitude    float64           `json:"latitude,omitempty"`
	Longitude   float64           `json:"longitude,omitempty"`
}

type SerpProductResult struct {
	Position    int     `json:"position"`
	Title       string  `json:"title"`
	Url         string  `json:"url"`
	Price       string  `json:"price,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	Merchant    string  `json:"merchant,omitempty"`
	ImageUrl    string  `json:"imageUrl,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"reviewCount,omitempty"`
}

type SerpResult struct {
	Status          string              `json:"status"`
	Query           string              `json:"query"`
	Engine          string              `json:"engine"`
	TotalResults    int                 `json:"totalResults,omitempty"`
	SearchTime      float64             `json:"searchTime,omitempty"`
	Organic         []SerpOrganicResult `json:"organic,omitempty"`
	Ads             []SerpAdResult      `json:"ads,omitempty"`
	Local           []SerpLocalResult   `json:"local,omitempty"`
	Products        []SerpProductResult `json:"products,omitempty"`
	KnowledgeGraph  map[string]any      `json:"knowledgeGraph,omitempty"`
	RelatedSearches []string            `json:"relatedSearches,omitempty"`
	Error           string              `json:"error,omitempty"`
	RequestId       string              `json:"requestId,omitempty"`
	Timestamp       string              `json:"timestamp,omitempty"`
}

// DeepSerpService runs search engine result page scrapers.
type DeepSerpService struct {
	*Service
}

func NewDeepSerpService(service *Service) DeepSerpService {
	return DeepSerpService{Service: service}
}

// Search runs `actor` (for example "scraper.google.search") for a query
// and decodes its result.
func (s DeepSerpService) Search(ctx context.Context, actor string, req SerpRequest) (SerpResult, error) {
	input, err := req.input()
	if err != nil {
		return SerpResult{}, err
	}
	raw, err := s.Scrape(ctx, TaskRequest{Actor: actor, Input: input})
	if err != nil {
		return SerpResult{}, err
	}
	var result SerpResult
	err = json.Unmarshal(raw, &result)
	if err != nil {
		return SerpResult{}, fmt.Errorf("decode serp result: %w", err)
	}
	return result, nil
}
