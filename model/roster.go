package model

// Player is a registered competitor as known to the roster.
type Player struct {
	Username string
	RSN      string
	Team     string
}

// Team groups players and names the channel the team submits from.
type Team struct {
	Name              string
	Abbreviation      string
	Color             string
	SubmissionChannel string
	Players           []Player
}

// Challenge is a timed challenge, optionally split into relay components.
type Challenge struct {
	Name           string
	RelayComponent string
}

// Key is the value users pick in the challenge option.
func (c Challenge) Key() string {
	if c.RelayComponent == "" {
		return c.Name + "|None"
	}
	return c.Name + "|" + c.RelayComponent
}

// Label is the display form of the challenge.
func (c Challenge) Label() string {
	if c.RelayComponent == "" {
		return c.Name
	}
	return c.Name + " - " + c.RelayComponent
}

// Record is a skill record, optionally with a handicap.
type Record struct {
	Skill    string
	Handicap string
}

// Key is the value users pick in the record option.
func (r Record) Key() string {
	if r.Handicap == "" {
		return r.Skill + "|None"
	}
	return r.Skill + "|" + r.Handicap
}

// Label is the display form of the record.
func (r Record) Label() string {
	if r.Handicap == "" {
		return r.Skill
	}
	return r.Skill + " - " + r.Handicap
}
