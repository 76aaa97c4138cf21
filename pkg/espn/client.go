// Package espn retrieves NFL rosters, statistics, and game box scores
// from the public ESPN site API, and exposes them as agent tools.
package espn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	defaultSiteURL   = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"
	defaultCommonURL = "https://site.api.espn.com/apis/common/v3/sports/football/nfl"

	// gameStatusFinal marks a completed game in schedule data.
	gameStatusFinal = "STATUS_FINAL"

	// scheduleDateLayout is ESPN's game date format.
	scheduleDateLayout = "2006-01-02T15:04Z"
)

// ErrPlayerNotFound indicates no roster entry matched the player name.
var ErrPlayerNotFound = errors.New("player not found on roster")

// Client calls the ESPN site API.
type Client struct {
	httpClient *http.Client
	siteURL    string
	commonURL  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURLs overrides the API base URLs. Used in tests.
func WithBaseURLs(siteURL, commonURL string) ClientOption {
	return func(c *Client) {
		c.siteURL = strings.TrimSuffix(siteURL, "/")
		c.commonURL = strings.TrimSuffix(commonURL, "/")
	}
}

// NewClient creates an ESPN API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		siteURL:    defaultSiteURL,
		commonURL:  defaultCommonURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Player is one roster entry.
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Position    string `json:"position,omitempty"`
}

// TeamRoster returns the players on a team's roster.
// ESPN groups athletes by position category; the categories are flattened.
func (c *Client) TeamRoster(ctx context.Context, teamID int) ([]Player, error) {
	var payload struct {
		Athletes []struct {
			Items []struct {
				ID          string `json:"id"`
				DisplayName string `json:"displayName"`
				Position    struct {
					Abbreviation string `json:"abbreviation"`
				} `json:"position"`
			} `json:"items"`
		} `json:"athletes"`
	}

	url := fmt.Sprintf("%s/teams/%d/roster", c.siteURL, teamID)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	var players []Player
	for _, category := range payload.Athletes {
		for _, item := range category.Items {
			players = append(players, Player{
				ID:          item.ID,
				DisplayName: item.DisplayName,
				Position:    item.Position.Abbreviation,
			})
		}
	}
	return players, nil
}

// FindPlayer returns the roster entry whose display name matches
// playerName, compared case-insensitively.
func (c *Client) FindPlayer(ctx context.Context, teamID int, playerName string) (Player, error) {
	players, err := c.TeamRoster(ctx, teamID)
	if err != nil {
		return Player{}, err
	}
	for _, p := range players {
		if strings.EqualFold(p.DisplayName, playerName) {
			return p, nil
		}
	}
	return Player{}, fmt.Errorf("%w: %q", ErrPlayerNotFound, playerName)
}

// PlayerStats returns a player's statistics as raw JSON.
func (c *Client) PlayerStats(ctx context.Context, playerID string) (json.RawMessage, error) {
	var payload json.RawMessage
	url := fmt.Sprintf("%s/athletes/%s/stats", c.commonURL, playerID)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// TeamStats returns a team's statistics as raw JSON.
func (c *Client) TeamStats(ctx context.Context, teamID int) (json.RawMessage, error) {
	var payload struct {
		Team json.RawMessage `json:"team"`
	}
	url := fmt.Sprintf("%s/teams/%d/statistics", c.siteURL, teamID)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	if payload.Team == nil {
		return nil, fmt.Errorf("team stats not found for team %d", teamID)
	}
	return payload.Team, nil
}

// RecentGameStats returns the box scores of the team's most recently
// completed games, newest first.
func (c *Client) RecentGameStats(ctx context.Context, teamID, numGames int) ([]json.RawMessage, error) {
	if numGames <= 0 {
		return nil, nil
	}

	var schedule struct {
		Events []struct {
			Competitions []struct {
				ID     string `json:"id"`
				Date   string `json:"date"`
				Status struct {
					Type struct {
						Name string `json:"name"`
					} `json:"type"`
				} `json:"status"`
			} `json:"competitions"`
		} `json:"events"`
	}

	url := fmt.Sprintf("%s/teams/%d/schedule", c.siteURL, teamID)
	if err := c.getJSON(ctx, url, &schedule); err != nil {
		return nil, err
	}

	type completedGame struct {
		id   string
		date time.Time
	}
	var completed []completedGame
	for _, event := range schedule.Events {
		if len(event.Competitions) == 0 {
			continue
		}
		game := event.Competitions[0]
		if game.Status.Type.Name != gameStatusFinal {
			continue
		}
		date, err := time.Parse(scheduleDateLayout, game.Date)
		if err != nil {
			continue
		}
		completed = append(completed, completedGame{id: game.ID, date: date})
	}

	sort.Slice(completed, func(i, j int) bool {
		return completed[i].date.After(completed[j].date)
	})
	if numGames < len(completed) {
		completed = completed[:numGames]
	}

	boxScores := make([]json.RawMessage, 0, len(completed))
	for _, game := range completed {
		var summary struct {
			BoxScore json.RawMessage `json:"boxscore"`
		}
		url := fmt.Sprintf("%s/summary?event=%s", c.siteURL, game.id)
		if err := c.getJSON(ctx, url, &summary); err != nil {
			return nil, err
		}
		boxScores = append(boxScores, summary.BoxScore)
	}
	return boxScores, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("espn request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("espn request %s: unexpected status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode espn response: %w", err)
	}
	return nil
}
