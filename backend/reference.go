package backend

import (
	"context"
	"strings"

	"showdown/model"
)

type teamDTO struct {
	Name         string      `json:"name"`
	Abbreviation string      `json:"abbreviation"`
	Color        string      `json:"color"`
	Players      []playerDTO `json:"players"`
}

type playerDTO struct {
	DiscordName string `json:"discordName"`
	RSN         string `json:"rsn"`
}

type contributionMethodDTO struct {
	Name string `json:"name"`
	Type string `json:"contributionMethodType"`
}

type collectionLogItemDTO struct {
	Name        string   `json:"name"`
	ItemOptions []string `json:"itemOptions"`
}

type named struct {
	Name string `json:"name"`
}

type challengeDTO struct {
	Name            string  `json:"name"`
	RelayComponents []named `json:"relayComponents"`
}

type recordDTO struct {
	Skill     string  `json:"skill"`
	Handicaps []named `json:"handicaps"`
}

// Teams returns every team with its players. Submission channels are not
// known to the backend and are left empty.
func (c *Client) Teams(ctx context.Context) ([]model.Team, error) {
	var dtos []teamDTO
	if err := c.get(ctx, "get teams", "teams", "/teams", &dtos); err != nil {
		return nil, err
	}
	teams := make([]model.Team, 0, len(dtos))
	for _, d := range dtos {
		team := model.Team{Name: d.Name, Abbreviation: d.Abbreviation, Color: d.Color}
		for _, p := range d.Players {
			team.Players = append(team.Players, model.Player{Username: p.DiscordName, RSN: p.RSN, Team: d.Name})
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// ContributionMethods returns the names of the methods of the given type,
// e.g. "KILLCOUNT".
func (c *Client) ContributionMethods(ctx context.Context, methodType string) ([]string, error) {
	var dtos []contributionMethodDTO
	if err := c.get(ctx, "get contribution methods", "contribution_methods", "/contributionMethods", &dtos); err != nil {
		return nil, err
	}
	var names []string
	for _, d := range dtos {
		if d.Type == methodType {
			names = append(names, d.Name)
		}
	}
	return names, nil
}

// CollectionLogItems returns every submittable item name. An item with
// options contributes its options instead of its own name.
func (c *Client) CollectionLogItems(ctx context.Context) ([]string, error) {
	var dtos []collectionLogItemDTO
	if err := c.get(ctx, "get collection log items", "collection_log_items", "/collectionLogItems", &dtos); err != nil {
		return nil, err
	}
	var items []string
	for _, d := range dtos {
		if len(d.ItemOptions) > 0 {
			items = append(items, d.ItemOptions...)
			continue
		}
		items = append(items, d.Name)
	}
	return items, nil
}

// Challenges returns one entry per relay component, or one for the whole
// challenge when it has none.
func (c *Client) Challenges(ctx context.Context) ([]model.Challenge, error) {
	var dtos []challengeDTO
	if err := c.get(ctx, "get challenges", "challenges", "/challenges", &dtos); err != nil {
		return nil, err
	}
	var challenges []model.Challenge
	for _, d := range dtos {
		if len(d.RelayComponents) == 0 {
			challenges = append(challenges, model.Challenge{Name: d.Name})
			continue
		}
		for _, rc := range d.RelayComponents {
			challenges = append(challenges, model.Challenge{Name: d.Name, RelayComponent: rc.Name})
		}
	}
	return challenges, nil
}

// Records returns each skill without a handicap followed by one entry per
// handicap. Skill names are title-cased.
func (c *Client) Records(ctx context.Context) ([]model.Record, error) {
	var dtos []recordDTO
	if err := c.get(ctx, "get records", "records", "/records", &dtos); err != nil {
		return nil, err
	}
	var records []model.Record
	for _, d := range dtos {
		skill := titleSkill(d.Skill)
		records = append(records, model.Record{Skill: skill})
		for _, h := range d.Handicaps {
			records = append(records, model.Record{Skill: skill, Handicap: h.Name})
		}
	}
	return records, nil
}

func titleSkill(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
