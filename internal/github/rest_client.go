package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	goGithub "github.com/google/go-github/v72/github"
	"golang.org/x/oauth2"
)

const defaultRESTBaseURL = "https://api.github.com/"

type restClient struct {
	httpClient *http.Client
	baseURL    *url.URL
}

func newRESTClient(cfg Config) (*restClient, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	baseURL := cfg.RESTBaseURL
	if baseURL == "" {
		baseURL = defaultRESTBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse REST base URL %q: %w", baseURL, err)
	}

	return &restClient{httpClient: httpClient, baseURL: parsed}, nil
}

// forToken builds a go-github client authenticated with one credential.
func (c *restClient) forToken(token string) *goGithub.Client {
	baseTransport := c.httpClient.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	authed := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   baseTransport,
		},
		Timeout: c.httpClient.Timeout,
	}

	client := goGithub.NewClient(authed)
	client.BaseURL = c.baseURL
	return client
}

func (c *restClient) viewer(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrEmptyToken
	}

	user, _, err := c.forToken(token).Users.Get(ctx, "")
	if err != nil {
		return User{}, wrapRESTError("get authenticated user", err)
	}
	return User{
		Login:     user.GetLogin(),
		AvatarURL: user.GetAvatarURL(),
		URL:       user.GetHTMLURL(),
	}, nil
}

func wrapRESTError(op string, err error) error {
	if err == nil {
		return nil
	}

	var respErr *goGithub.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return fmt.Errorf("%s: %w", op, &statusError{
			StatusCode: respErr.Response.StatusCode,
			Err:        err,
		})
	}

	return fmt.Errorf("%s: %w", op, err)
}
