package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"scrapeless-go/lib/transport"
)

const profilePath = "/api/v1/profiles"

type Profile struct {
	ProfileId string `json:"profileId"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type DeleteProfileResponse struct {
	Success bool `json:"success"`
}

type ProfileListParams struct {
	Page     int
	PageSize int
	Name     string
}

type ProfileList struct {
	Docs     []Profile `json:"docs"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

type ProfileService struct {
	sender transport.Sender
}

func NewProfileService(sender transport.Sender) *ProfileService {
	return &ProfileService{sender: sender}
}

func (s *ProfileService) Create(ctx context.Context, name string) (Profile, error) {
	ctx, span := tracer.Start(ctx, "CreateProfile")
	defer span.End()
	return transport.Do[Profile](ctx, s.sender, transport.Request{
		Method: http.MethodPost,
		Path:   profilePath,
		Body:   map[string]string{"name": name},
	})
}

func (s *ProfileService) Get(ctx context.Context, profileId string) (Profile, error) {
	ctx, span := tracer.Start(ctx, "GetProfile")
	defer span.End()
	return transport.Do[Profile](ctx, s.sender, transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/%s", profilePath, profileId),
	})
}

func (s *ProfileService) Delete(ctx context.Context, profileId string) (DeleteProfileResponse, error) {
	ctx, span := tracer.Start(ctx, "DeleteProfile")
	defer span.End()
	return transport.Do[DeleteProfileResponse](ctx, s.sender, transport.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s/%s", profilePath, profileId),
	})
}

func (s *ProfileService) List(ctx context.Context, params ProfileListParams) (ProfileList, error) {
	ctx, span := tracer.Start(ctx, "ListProfiles")
	defer span.End()

	page := params.Page
	if page <= 0 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))
	if params.Name != "" {
		query.Set("name", params.Name)
	}
	return transport.Do[ProfileList](ctx, s.sender, transport.Request{
		Method: http.MethodGet,
		Path:   profilePath,
		Query:  query,
	})
}
