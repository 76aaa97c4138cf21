package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gridironlabs/gridiron/pkg/gridiron/tool"
)

// Tools returns the NFL data-retrieval tools backed by the client,
// ready to register with a tool registry.
func Tools(client *Client) []tool.Declaration {
	return []tool.Declaration{
		{
			Name:        "get_team_id",
			Description: "Look up the ESPN team id for an NFL team abbreviation, e.g. \"KC\" for the Kansas City Chiefs.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"team_abbreviation": {
						"type": "string",
						"description": "NFL team abbreviation, e.g. ARI, KC, SF"
					}
				},
				"required": ["team_abbreviation"]
			}`),
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in struct {
					TeamAbbreviation string `json:"team_abbreviation"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return "", err
				}
				id, ok := TeamID(in.TeamAbbreviation)
				if !ok {
					return "", fmt.Errorf("unknown team abbreviation %q", in.TeamAbbreviation)
				}
				return strconv.Itoa(id), nil
			},
		},
		{
			Name:        "get_team_players",
			Description: "List the players on an NFL team's roster with their ids and positions.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"team_id": {
						"type": "integer",
						"description": "ESPN team id"
					}
				},
				"required": ["team_id"]
			}`),
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in struct {
					TeamID int `json:"team_id"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return "", err
				}
				players, err := client.TeamRoster(ctx, in.TeamID)
				if err != nil {
					return "", err
				}
				return marshalOutput(players)
			},
		},
		{
			Name:        "get_player_id",
			Description: "Find a player's id by name on a team's roster. The name match is case-insensitive.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"team_id": {
						"type": "integer",
						"description": "ESPN team id"
					},
					"player_name": {
						"type": "string",
						"description": "Player display name, e.g. \"Patrick Mahomes\""
					}
				},
				"required": ["team_id", "player_name"]
			}`),
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in struct {
					TeamID     int    `json:"team_id"`
					PlayerName string `json:"player_name"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return "", err
				}
				player, err := client.FindPlayer(ctx, in.TeamID, in.PlayerName)
				if err != nil {
					return "", err
				}
				return player.ID, nil
			},
		},
		{
			Name:        "get_player_stats",
			Description: "Retrieve a player's NFL statistics by player id.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"player_id": {
						"type": "string",
						"description": "ESPN player id"
					}
				},
				"required": ["player_id"]
			}`),
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in struct {
					PlayerID string `json:"player_id"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return "", err
				}
				stats, err := client.PlayerStats(ctx, in.PlayerID)
				if err != nil {
					return "", err
				}
				return string(stats), nil
			},
		},
		{
			Name:        "get_nfl_team_stats",
			Description: "Retrieve an NFL team's season statistics by team id.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"team_id": {
						"type": "integer",
						"description": "ESPN team id"
					}
				},
				"required": ["team_id"]
			}`),
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in struct {
					TeamID int `json:"team_id"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return "", err
				}
				stats, err := client.TeamStats(ctx, in.TeamID)
				if err != nil {
					return "", err
				}
				return string(stats), nil
			},
		},
		{
			Name:        "get_recent_game_stats",
			Description: "Retrieve box scores for a team's most recently completed games, newest first.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"team_id": {
						"type": "integer",
						"description": "ESPN team id"
					},
					"num_games": {
						"type": "integer",
						"description": "Number of recent games to fetch",
						"minimum": 1
					}
				},
				"required": ["team_id", "num_games"]
			}`),
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in struct {
					TeamID   int `json:"team_id"`
					NumGames int `json:"num_games"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return "", err
				}
				boxScores, err := client.RecentGameStats(ctx, in.TeamID, in.NumGames)
				if err != nil {
					return "", err
				}
				return marshalOutput(boxScores)
			},
		},
	}
}

// Register adds all ESPN tools to the registry.
func Register(registry *tool.Registry, client *Client) error {
	for _, decl := range Tools(client) {
		if err := registry.Register(decl); err != nil {
			return err
		}
	}
	return nil
}

func marshalOutput(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal tool output: %w", err)
	}
	return string(data), nil
}
