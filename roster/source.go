package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"showdown/model"

	"gopkg.in/yaml.v3"
)

// Source produces the data for a new snapshot.
type Source interface {
	Load(ctx context.Context) (Data, error)
}

// MonsterMethodType is the contribution method type that lists monsters.
const MonsterMethodType = "KILLCOUNT"

// ReferenceClient is the backend surface BackendSource reads from.
type ReferenceClient interface {
	Teams(ctx context.Context) ([]model.Team, error)
	ContributionMethods(ctx context.Context, methodType string) ([]string, error)
	CollectionLogItems(ctx context.Context) ([]string, error)
	Challenges(ctx context.Context) ([]model.Challenge, error)
	Records(ctx context.Context) ([]model.Record, error)
}

// BackendSource builds snapshots from the scoring backend. The backend does
// not know submission channels, so they come from TeamChannels, keyed by
// team name in any case.
type BackendSource struct {
	Client       ReferenceClient
	TeamChannels map[string]string
}

func (s BackendSource) Load(ctx context.Context) (Data, error) {
	var d Data
	var err error
	if d.Teams, err = s.Client.Teams(ctx); err != nil {
		return Data{}, fmt.Errorf("load teams: %w", err)
	}
	if d.Monsters, err = s.Client.ContributionMethods(ctx, MonsterMethodType); err != nil {
		return Data{}, fmt.Errorf("load monsters: %w", err)
	}
	if d.CollectionLogItems, err = s.Client.CollectionLogItems(ctx); err != nil {
		return Data{}, fmt.Errorf("load collection log items: %w", err)
	}
	if d.Challenges, err = s.Client.Challenges(ctx); err != nil {
		return Data{}, fmt.Errorf("load challenges: %w", err)
	}
	if d.Records, err = s.Client.Records(ctx); err != nil {
		return Data{}, fmt.Errorf("load records: %w", err)
	}
	for i := range d.Teams {
		d.Teams[i].SubmissionChannel = lookupChannel(s.TeamChannels, d.Teams[i].Name)
	}
	return d, nil
}

func lookupChannel(channels map[string]string, team string) string {
	if c, ok := channels[team]; ok {
		return c
	}
	return channels[strings.ToLower(team)]
}

// File names read by FileSource.
const (
	TeamsFile              = "teams.yaml"
	MonstersFile           = "monsters.yaml"
	CollectionLogItemsFile = "collection-log-items.yaml"
	ChallengesFile         = "challenges.yaml"
	RecordsFile            = "records.yaml"
)

// FileSource builds snapshots from YAML files in Dir. Only the teams file is
// required.
type FileSource struct {
	Dir string
}

type fileTeam struct {
	Name              string       `yaml:"name"`
	Abbreviation      string       `yaml:"abbreviation"`
	Color             string       `yaml:"color"`
	SubmissionChannel string       `yaml:"submission_channel"`
	Players           []filePlayer `yaml:"players"`
}

type filePlayer struct {
	Tag string `yaml:"tag"`
	RSN string `yaml:"rsn"`
}

type fileNamed struct {
	Name string `yaml:"name"`
}

type fileChallenge struct {
	Name            string   `yaml:"name"`
	RelayComponents []string `yaml:"relay_components"`
}

type fileRecord struct {
	Skill     string   `yaml:"skill"`
	Handicaps []string `yaml:"handicaps"`
}

func (s FileSource) Load(ctx context.Context) (Data, error) {
	var d Data

	var teams []fileTeam
	if err := s.read(TeamsFile, true, &teams); err != nil {
		return Data{}, err
	}
	for _, t := range teams {
		team := model.Team{
			Name:              t.Name,
			Abbreviation:      t.Abbreviation,
			Color:             t.Color,
			SubmissionChannel: t.SubmissionChannel,
		}
		for _, p := range t.Players {
			rsn := p.RSN
			if rsn == "" {
				rsn = p.Tag
			}
			team.Players = append(team.Players, model.Player{Username: p.Tag, RSN: rsn, Team: t.Name})
		}
		d.Teams = append(d.Teams, team)
	}

	var monsters, items []fileNamed
	if err := s.read(MonstersFile, false, &monsters); err != nil {
		return Data{}, err
	}
	for _, m := range monsters {
		d.Monsters = append(d.Monsters, m.Name)
	}
	if err := s.read(CollectionLogItemsFile, false, &items); err != nil {
		return Data{}, err
	}
	for _, it := range items {
		d.CollectionLogItems = append(d.CollectionLogItems, it.Name)
	}

	var challenges []fileChallenge
	if err := s.read(ChallengesFile, false, &challenges); err != nil {
		return Data{}, err
	}
	for _, c := range challenges {
		if len(c.RelayComponents) == 0 {
			d.Challenges = append(d.Challenges, model.Challenge{Name: c.Name})
			continue
		}
		for _, rc := range c.RelayComponents {
			d.Challenges = append(d.Challenges, model.Challenge{Name: c.Name, RelayComponent: rc})
		}
	}

	var records []fileRecord
	if err := s.read(RecordsFile, false, &records); err != nil {
		return Data{}, err
	}
	for _, r := range records {
		d.Records = append(d.Records, model.Record{Skill: r.Skill})
		for _, h := range r.Handicaps {
			d.Records = append(d.Records, model.Record{Skill: r.Skill, Handicap: h})
		}
	}
	return d, nil
}

func (s FileSource) read(name string, required bool, out any) error {
	path := filepath.Join(s.Dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
