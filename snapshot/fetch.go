package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/raywall/issue-insights/analyzer"
)

const (
	perPage             = 100
	rateLimitFloor      = 100
	rateLimitBackoff    = 5 * time.Second
	maxRateLimitRetries = 3
	issueStateAll       = "all"
	issueSortCreated    = "created"
	issueOrderAscends   = "asc"
)

// ErrMissingRepository is returned when owner or repository is not set.
var ErrMissingRepository = errors.New("owner and repository are required")

// Fetcher downloads issues and their timelines from GitHub.
type Fetcher struct {
	client *github.Client
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
	now    func() time.Time
}

// NewFetcher creates a Fetcher. An empty token uses unauthenticated access.
func NewFetcher(ctx context.Context, token string, logger *slog.Logger) *Fetcher {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	return NewFetcherWithClient(github.NewClient(httpClient), logger)
}

// NewFetcherWithClient creates a Fetcher around an existing GitHub client.
func NewFetcherWithClient(client *github.Client, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Fetcher{client: client, logger: logger, sleep: sleepContext, now: time.Now}
}

// FetchIssues lists every issue of owner/repo updated since the given time
// (zero for all) together with its timeline. Pull requests are skipped.
func (f *Fetcher) FetchIssues(ctx context.Context, owner, repo string, since time.Time) ([]analyzer.Issue, error) {
	if owner == "" || repo == "" {
		return nil, ErrMissingRepository
	}

	opts := &github.IssueListByRepoOptions{
		State:       issueStateAll,
		Sort:        issueSortCreated,
		Direction:   issueOrderAscends,
		Since:       since,
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var issues []analyzer.Issue

	for {
		var page []*github.Issue

		resp, err := f.withRateLimit(ctx, func() (*github.Response, error) {
			issuePage, resp, err := f.client.Issues.ListByRepo(ctx, owner, repo, opts)
			page = issuePage
			return resp, err
		})
		if err != nil {
			return nil, fmt.Errorf("list issues of %s/%s: %w", owner, repo, err)
		}

		for _, gi := range page {
			if gi.IsPullRequest() {
				continue
			}

			events, err := f.fetchTimeline(ctx, owner, repo, gi.GetNumber())
			if err != nil {
				return nil, err
			}

			issues = append(issues, convertIssue(gi, events))
		}

		f.logger.DebugContext(ctx, "fetched issue page", "page", opts.Page, "total", len(issues))

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	f.logger.InfoContext(ctx, "issues fetched", "repo", owner+"/"+repo, "issues", len(issues))

	return issues, nil
}

func (f *Fetcher) fetchTimeline(ctx context.Context, owner, repo string, number int) ([]analyzer.Event, error) {
	opts := &github.ListOptions{PerPage: perPage}

	var events []analyzer.Event

	for {
		var page []*github.Timeline

		resp, err := f.withRateLimit(ctx, func() (*github.Response, error) {
			timelinePage, resp, err := f.client.Issues.ListIssueTimeline(ctx, owner, repo, number, opts)
			page = timelinePage
			return resp, err
		})
		if err != nil {
			return nil, fmt.Errorf("list timeline of #%d: %w", number, err)
		}

		for _, t := range page {
			events = append(events, convertEvent(t))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return events, nil
}

// withRateLimit runs call and throttles on the rate it reports. A request
// rejected by the primary rate limit is retried once the quota resets.
func (f *Fetcher) withRateLimit(ctx context.Context, call func() (*github.Response, error)) (*github.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := call()
		if err == nil {
			if resp != nil {
				if werr := f.checkRateLimit(ctx, resp.Rate); werr != nil {
					return nil, werr
				}
			}
			return resp, nil
		}

		var rateErr *github.RateLimitError
		if !errors.As(err, &rateErr) || attempt >= maxRateLimitRetries {
			return resp, err
		}

		f.logger.WarnContext(ctx, "rate limit exceeded, waiting for reset",
			"reset", rateErr.Rate.Reset.Time,
			"attempt", attempt+1,
		)

		if werr := f.sleep(ctx, f.untilReset(rateErr.Rate)); werr != nil {
			return nil, werr
		}
	}
}

// checkRateLimit sleeps when the remaining quota is running low. An
// exhausted quota waits until the reset time.
func (f *Fetcher) checkRateLimit(ctx context.Context, rate github.Rate) error {
	if rate.Limit == 0 || rate.Remaining >= rateLimitFloor {
		return nil
	}

	wait := rateLimitBackoff
	if rate.Remaining == 0 {
		wait = f.untilReset(rate)
	}

	f.logger.WarnContext(ctx, "rate limit low, backing off",
		"remaining", rate.Remaining,
		"backoff", wait,
	)

	return f.sleep(ctx, wait)
}

func (f *Fetcher) untilReset(rate github.Rate) time.Duration {
	if until := rate.Reset.Sub(f.now()); until > rateLimitBackoff {
		return until
	}
	return rateLimitBackoff
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func convertIssue(gi *github.Issue, events []analyzer.Event) analyzer.Issue {
	issue := analyzer.Issue{
		Number:    gi.GetNumber(),
		Title:     gi.GetTitle(),
		Creator:   gi.GetUser().GetLogin(),
		State:     analyzer.State(strings.ToLower(gi.GetState())),
		CreatedAt: gi.GetCreatedAt().Time,
		UpdatedAt: gi.GetUpdatedAt().Time,
		Events:    events,
	}

	for _, l := range gi.Labels {
		if name := l.GetName(); name != "" {
			issue.Labels = append(issue.Labels, name)
		}
	}

	return issue
}

func convertEvent(t *github.Timeline) analyzer.Event {
	author := t.GetActor().GetLogin()
	if author == "" {
		author = t.GetUser().GetLogin()
	}

	return analyzer.Event{
		Type:   t.GetEvent(),
		Author: author,
		At:     t.GetCreatedAt().Time,
	}
}
