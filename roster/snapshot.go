// Package roster holds the competition reference data the bot validates
// against: players, teams, monsters, collection log items, challenges and
// records. A Snapshot is immutable once built; Store swaps whole snapshots.
package roster

import (
	"strings"
	"time"

	"showdown/model"
)

// Data is the raw material for a snapshot.
type Data struct {
	Teams              []model.Team
	Monsters           []string
	CollectionLogItems []string
	Challenges         []model.Challenge
	Records            []model.Record
}

// Snapshot is a read-only view of the roster at one point in time.
type Snapshot struct {
	teams      []model.Team
	players    map[string]model.Player
	channels   map[string]string
	monsters   []string
	monsterSet map[string]struct{}
	items      []string
	itemSet    map[string]struct{}
	challenges []model.Challenge
	challenge  map[string]model.Challenge
	records    []model.Record
	record     map[string]model.Record
	loadedAt   time.Time
}

// NewSnapshot copies d into a new snapshot. Player usernames are matched
// case-insensitively.
func NewSnapshot(d Data) *Snapshot {
	s := &Snapshot{
		players:    make(map[string]model.Player),
		channels:   make(map[string]string),
		monsters:   append([]string(nil), d.Monsters...),
		monsterSet: toSet(d.Monsters),
		items:      append([]string(nil), d.CollectionLogItems...),
		itemSet:    toSet(d.CollectionLogItems),
		challenges: append([]model.Challenge(nil), d.Challenges...),
		challenge:  make(map[string]model.Challenge, len(d.Challenges)),
		records:    append([]model.Record(nil), d.Records...),
		record:     make(map[string]model.Record, len(d.Records)),
		loadedAt:   time.Now(),
	}
	for _, team := range d.Teams {
		team.Players = append([]model.Player(nil), team.Players...)
		for i := range team.Players {
			team.Players[i].Team = team.Name
			s.players[strings.ToLower(team.Players[i].Username)] = team.Players[i]
		}
		if team.SubmissionChannel != "" {
			s.channels[team.Name] = team.SubmissionChannel
		}
		s.teams = append(s.teams, team)
	}
	for _, c := range d.Challenges {
		s.challenge[c.Key()] = c
	}
	for _, r := range d.Records {
		s.record[r.Key()] = r
	}
	return s
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Player looks up a registered player by username.
func (s *Snapshot) Player(username string) (model.Player, bool) {
	p, ok := s.players[strings.ToLower(username)]
	return p, ok
}

// SubmissionChannel returns the channel a team submits from.
func (s *Snapshot) SubmissionChannel(team string) (string, bool) {
	c, ok := s.channels[team]
	return c, ok
}

// HasMonster reports whether name is a known killcount method.
func (s *Snapshot) HasMonster(name string) bool {
	_, ok := s.monsterSet[name]
	return ok
}

// HasCollectionLogItem reports whether name is a known collection log item.
func (s *Snapshot) HasCollectionLogItem(name string) bool {
	_, ok := s.itemSet[name]
	return ok
}

// Challenge looks up a challenge by its option key ("name|relay").
func (s *Snapshot) Challenge(key string) (model.Challenge, bool) {
	c, ok := s.challenge[key]
	return c, ok
}

// Record looks up a record by its option key ("skill|handicap").
func (s *Snapshot) Record(key string) (model.Record, bool) {
	r, ok := s.record[key]
	return r, ok
}

// Teams returns the teams with their players.
func (s *Snapshot) Teams() []model.Team           { return s.teams }
func (s *Snapshot) Monsters() []string            { return s.monsters }
func (s *Snapshot) CollectionLogItems() []string  { return s.items }
func (s *Snapshot) Challenges() []model.Challenge { return s.challenges }
func (s *Snapshot) Records() []model.Record       { return s.records }
func (s *Snapshot) LoadedAt() time.Time           { return s.loadedAt }

// Players returns every registered player.
func (s *Snapshot) Players() []model.Player {
	var players []model.Player
	for _, team := range s.teams {
		players = append(players, team.Players...)
	}
	return players
}
