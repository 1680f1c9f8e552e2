package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/metasync/internal/domain"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

type service struct {
	log        zerolog.Logger
	apiKey     string
	baseURL    string
	httpClient *http.Client

	maxTries   uint
	newBackOff func() backoff.BackOff
}

type movieSearchResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID            int    `json:"id"`
		Title         string `json:"title"`
		OriginalTitle string `json:"original_title"`
		ReleaseDate   string `json:"release_date"`
	} `json:"results"`
	TotalResults int `json:"total_results"`
}

type tvSearchResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID           int    `json:"id"`
		Name         string `json:"name"`
		OriginalName string `json:"original_name"`
		FirstAirDate string `json:"first_air_date"`
	} `json:"results"`
	TotalResults int `json:"total_results"`
}

type externalIDsResponse struct {
	ID     int    `json:"id"`
	TvdbID *int   `json:"tvdb_id"`
	ImdbID string `json:"imdb_id"`
}

// NewService returns a SearchProvider backed by the TMDB v3 API. Series
// searches resolve the TVDB id through the show's external ids.
func NewService(log zerolog.Logger, config *domain.Config) domain.SearchProvider {
	baseURL := config.TmdbBaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &service{
		log:     log.With().Str("module", "tmdb").Logger(),
		apiKey:  config.TmdbApiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxTries: 3,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

func (s *service) Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error) {
	switch query.Class {
	case domain.ClassMovies:
		return s.searchMovie(ctx, query)
	case domain.ClassSeries:
		return s.searchSeries(ctx, query)
	default:
		return nil, errors.Errorf("unsupported item class %q", query.Class)
	}
}

func (s *service) searchMovie(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error) {
	params := s.params(query.Title, query.Language)
	if query.Year != nil {
		params.Set("year", strconv.Itoa(*query.Year))
	}

	resp := &movieSearchResponse{}
	if err := s.getJSON(ctx, s.buildURL("/search/movie", params), resp); err != nil {
		return nil, errors.Wrap(err, "failed to search TMDB movies")
	}

	if len(resp.Results) == 0 {
		s.log.Trace().Str("title", query.Title).Msg("no TMDB movie results")
		return nil, nil
	}

	first := resp.Results[0]
	return &domain.SearchResult{
		Name: first.Title,
		Year: getYear(first.ReleaseDate),
		ProviderIDs: map[string]string{
			domain.ProviderTmdb: strconv.Itoa(first.ID),
		},
	}, nil
}

func (s *service) searchSeries(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error) {
	params := s.params(query.Title, query.Language)
	if query.Year != nil {
		params.Set("first_air_date_year", strconv.Itoa(*query.Year))
	}

	resp := &tvSearchResponse{}
	if err := s.getJSON(ctx, s.buildURL("/search/tv", params), resp); err != nil {
		return nil, errors.Wrap(err, "failed to search TMDB series")
	}

	if len(resp.Results) == 0 {
		s.log.Trace().Str("title", query.Title).Msg("no TMDB series results")
		return nil, nil
	}

	first := resp.Results[0]
	result := &domain.SearchResult{
		Name: first.Name,
		Year: getYear(first.FirstAirDate),
		ProviderIDs: map[string]string{
			domain.ProviderTmdb: strconv.Itoa(first.ID),
		},
	}

	ids := &externalIDsResponse{}
	path := fmt.Sprintf("/tv/%d/external_ids", first.ID)
	if err := s.getJSON(ctx, s.buildURL(path, s.params("", "")), ids); err != nil {
		return nil, errors.Wrapf(err, "failed to get external ids for TMDB series %d", first.ID)
	}

	if ids.TvdbID != nil && *ids.TvdbID > 0 {
		result.ProviderIDs[domain.ProviderTvdb] = strconv.Itoa(*ids.TvdbID)
	} else {
		s.log.Debug().Str("title", query.Title).Int("tmdb_id", first.ID).Msg("TMDB series has no TVDB id")
	}

	return result, nil
}

func (s *service) params(title, language string) url.Values {
	params := url.Values{}
	params.Set("api_key", s.apiKey)
	if title != "" {
		params.Set("query", title)
		params.Set("page", "1")
		params.Set("include_adult", "false")
	}
	if language != "" {
		params.Set("language", language)
	}
	return params
}

func (s *service) buildURL(path string, params url.Values) string {
	return s.baseURL + path + "?" + params.Encode()
}

// getJSON fetches u into v, retrying network errors, 429 and 5xx responses
func (s *service) getJSON(ctx context.Context, u string, v any) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, s.fetch(ctx, u, v)
	},
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.log.Debug().Err(err).Dur("backoff", next).Msg("retrying TMDB request")
		}),
	)
	return err
}

func (s *service) fetch(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return backoff.Permanent(errors.Wrap(err, "failed to create request"))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return errors.Wrap(err, "failed to fetch")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return backoff.RetryAfter(secs)
		}
		return errors.Errorf("unexpected status code %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return errors.Errorf("unexpected status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return backoff.Permanent(errors.Errorf("unexpected status code %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if err := json.Unmarshal(body, v); err != nil {
		return backoff.Permanent(errors.Wrap(err, "failed to unmarshal response"))
	}

	return nil
}

var yearRegexp = regexp.MustCompile(`^\d{4}`)

func getYear(d string) *int {
	y, err := strconv.Atoi(yearRegexp.FindString(d))
	if err != nil {
		return nil
	}
	return &y
}
