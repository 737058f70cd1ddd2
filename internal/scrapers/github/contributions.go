package github

import (
	"context"
	"fmt"
	"time"
	"vigil-backend/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const DefaultGraphqlEndpoint = "https://api.github.com/graphql"

const contributionsQuery = `query($login: String!) {
  user(login: $login) {
    contributionsCollection {
      contributionCalendar {
        totalContributions
      }
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type contributionsResponse struct {
	Data struct {
		User *struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					TotalContributions int `json:"totalContributions"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ContributionsClient asks the GitHub GraphQL api for the contribution total of the last year.
type ContributionsClient struct {
	endpoint string
	http     *resty.Client
}

// NewContributionsClient creates a client authenticating with token. An empty endpoint
// means DefaultGraphqlEndpoint.
func NewContributionsClient(endpoint, token string, tel telemetry.API) ContributionsClient {
	if endpoint == "" {
		endpoint = DefaultGraphqlEndpoint
	}

	client := resty.New()
	client.SetAuthToken(token)
	client.SetHeader("content-type", "application/json")
	client.SetTimeout(time.Second * 15)
	telemetry.InstrumentResty(client, "vigil.scrapers.github.graphql", tel)

	return ContributionsClient{endpoint: endpoint, http: client}
}

func (c ContributionsClient) TotalContributions(ctx context.Context, username string) (int, error) {
	var body contributionsResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(graphqlRequest{
			Query:     contributionsQuery,
			Variables: map[string]any{"login": username},
		}).
		SetResult(&body).
		Post(c.endpoint)
	if err != nil {
		return 0, fmt.Errorf("graphql request: %w", err)
	}
	if !res.IsSuccess() {
		return 0, fmt.Errorf("graphql request: status code %d", res.StatusCode())
	}
	if len(body.Errors) > 0 {
		return 0, fmt.Errorf("graphql: %s", body.Errors[0].Message)
	}
	if body.Data.User == nil {
		return 0, fmt.Errorf("graphql: user %s not found", username)
	}
	return body.Data.User.ContributionsCollection.ContributionCalendar.TotalContributions, nil
}
