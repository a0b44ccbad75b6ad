package workflow

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"showdown/backend"
	"showdown/model"
	"showdown/roster"
)

// FieldType is the input type of a submission field.
type FieldType int

const (
	FieldAttachment FieldType = iota
	FieldInteger
	FieldString
)

// Choices names the roster list a string field is picked from.
type Choices string

const (
	ChoicesNone       Choices = ""
	ChoicesMonsters   Choices = "monsters"
	ChoicesItems      Choices = "collection_log_items"
	ChoicesChallenges Choices = "challenges"
	ChoicesRecords    Choices = "records"
)

// Field describes one input of a submission command.
type Field struct {
	Name        string
	Description string
	Type        FieldType
	Required    bool
	Choices     Choices
}

func attachment(name, desc string) Field {
	return Field{Name: name, Description: desc, Type: FieldAttachment, Required: true}
}

func integer(name, desc string) Field {
	return Field{Name: name, Description: desc, Type: FieldInteger, Required: true}
}

func optionalInteger(name string) Field {
	return Field{Name: name, Description: strings.ReplaceAll(name, "_", " "), Type: FieldInteger}
}

func choice(name, desc string, from Choices) Field {
	return Field{Name: name, Description: desc, Type: FieldString, Required: true, Choices: from}
}

// baFields are the optional Barbarian Assault counters, in display order.
var baFields = []string{
	"high_gambles",
	"attacker_points", "defender_points", "collector_points", "healer_points",
	"attacker_level", "defender_level", "collector_level", "healer_level",
	"hats", "torso", "skirt", "gloves", "boots",
}

var mtaArenas = []struct{ field, method string }{
	{"alchemy_points", "MTA Alchemy Points"},
	{"graveyard_points", "MTA Graveyard Points"},
	{"enchanting_points", "MTA Enchanting Points"},
	{"telekinetic_points", "MTA Telekinetic Points"},
}

// Description is the slash command description of a kind.
func Description(kind model.Kind) string {
	switch kind {
	case model.KindMonsterKillcount:
		return "Submit a monster killcount for the competition!"
	case model.KindCollectionLog:
		return "Submit a collection log item for the competition! (Make sure the drop is in the screenshot)"
	case model.KindPestControl:
		return "Submit your pest control games for the competition! (All difficulties added together)"
	case model.KindLMS:
		return "Submit your LMS kills for the competition!"
	case model.KindMTA:
		return "Submit your MTA points for the competition!"
	case model.KindTitheFarm:
		return "Submit your tithe farm points for the competition!"
	case model.KindFarmingContracts:
		return "Submit your farming contracts for the competition!"
	case model.KindBarbarianAssault:
		return "Submit your BA points for the competition! (Make sure to check the optional arguments)"
	case model.KindChallenge:
		return "Submit your challenge times for the competition! (Make sure to have precise timing enabled.)"
	case model.KindRecord:
		return "Submit a skill record for the competition! (Link a video of the record)"
	case model.KindUnrankedStartingKC:
		return "Submit your starting killcount for a monster you were unranked in"
	}
	return ""
}

// Fields lists the inputs of a kind in the order they are displayed.
func Fields(kind model.Kind) []Field {
	screenshot := attachment("screenshot", "Screenshot of your progress")
	switch kind {
	case model.KindMonsterKillcount:
		return []Field{screenshot, choice("monster", "Monster name", ChoicesMonsters), integer("kc", "Killcount")}
	case model.KindCollectionLog:
		return []Field{screenshot, choice("item", "Collection log item", ChoicesItems)}
	case model.KindPestControl:
		return []Field{screenshot, integer("total_games", "Total games played")}
	case model.KindLMS:
		return []Field{screenshot, integer("kills", "LMS kills")}
	case model.KindMTA:
		fields := []Field{screenshot}
		for _, arena := range mtaArenas {
			fields = append(fields, integer(arena.field, strings.ReplaceAll(arena.field, "_", " ")))
		}
		return fields
	case model.KindTitheFarm:
		return []Field{screenshot, integer("points", "Tithe farm points")}
	case model.KindFarmingContracts:
		return []Field{screenshot, integer("contracts", "Farming contracts completed")}
	case model.KindBarbarianAssault:
		fields := []Field{
			attachment("clog_screenshot", "Screenshot of your BA collection log"),
			attachment("blackboard_screenshot", "Screenshot of the BA blackboard"),
		}
		for _, name := range baFields {
			fields = append(fields, optionalInteger(name))
		}
		return fields
	case model.KindChallenge:
		return []Field{
			screenshot,
			integer("minutes", "Minutes"),
			integer("seconds", "Seconds"),
			integer("tenths_of_seconds", "Tenths of a second"),
			choice("challenge", "Challenge", ChoicesChallenges),
		}
	case model.KindRecord:
		return []Field{
			choice("record", "Skill record", ChoicesRecords),
			integer("value", "Record value"),
			{Name: "video_url", Description: "Link to a video of the record", Type: FieldString, Required: true},
			{Name: "completed_at", Description: "Date the record was set (YYYY-MM-DD)", Type: FieldString, Required: true},
		}
	case model.KindUnrankedStartingKC:
		return []Field{screenshot, choice("monster", "Monster name", ChoicesMonsters), integer("kc", "Starting killcount")}
	}
	return nil
}

// plan is what a validated submission turns into.
type plan struct {
	shortDesc string
	entries   []backend.Entry
}

// fieldReader parses parameters, remembering the first problem.
type fieldReader struct {
	params model.Params
}

func (r fieldReader) str(name string) (string, error) {
	v, ok := r.params.Get(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", model.Invalidf("Missing required field %s", name)
	}
	return v, nil
}

func (r fieldReader) num(name string) (int, error) {
	v, err := r.str(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, model.Invalidf("%s must be a whole number", name)
	}
	return n, nil
}

// optionalNum returns 0 for a missing field.
func (r fieldReader) optionalNum(name string) (int, error) {
	if _, ok := r.params.Get(name); !ok {
		return 0, nil
	}
	return r.num(name)
}

func nonNegative(label string, values ...int) error {
	for _, v := range values {
		if v < 0 {
			return model.Invalidf("%s cannot be negative", label)
		}
	}
	return nil
}

func checkRequired(kind model.Kind, params model.Params) error {
	for _, f := range Fields(kind) {
		if !f.Required {
			continue
		}
		if v, ok := params.Get(f.Name); !ok || strings.TrimSpace(v) == "" {
			return model.Invalidf("Missing required field %s", f.Name)
		}
	}
	return nil
}

// planSubmission validates params for kind and builds the backend entries.
// Every kind must have a case here.
func planSubmission(kind model.Kind, params model.Params, player model.Player, snap *roster.Snapshot) (plan, error) {
	if err := checkRequired(kind, params); err != nil {
		return plan{}, err
	}
	r := fieldReader{params: params}
	urls := params.EvidenceURLs()
	contribution := func(method string, value int, desc string) backend.Entry {
		return backend.Contribution{RSN: player.RSN, MethodName: method, Value: value, ScreenshotURLs: urls, Description: desc}
	}

	switch kind {
	case model.KindMonsterKillcount, model.KindUnrankedStartingKC:
		monster, _ := r.str("monster")
		kc, err := r.num("kc")
		if err != nil {
			return plan{}, err
		}
		if err := nonNegative("KC", kc); err != nil {
			return plan{}, err
		}
		if !snap.HasMonster(monster) {
			return plan{}, model.Invalidf("Invalid monster name (make sure to click on the autocomplete option)")
		}
		if kind == model.KindUnrankedStartingKC {
			desc := fmt.Sprintf("Unranked starting KC of %d for %s", kc, monster)
			return plan{shortDesc: desc, entries: []backend.Entry{backend.UnrankedStartingValue{
				RSN: player.RSN, MethodName: monster, Value: kc, ScreenshotURLs: urls, Description: desc,
			}}}, nil
		}
		desc := fmt.Sprintf("%d KC of %s", kc, monster)
		return plan{shortDesc: desc, entries: []backend.Entry{contribution(monster, kc, desc)}}, nil

	case model.KindCollectionLog:
		item, _ := r.str("item")
		if !snap.HasCollectionLogItem(item) {
			return plan{}, model.Invalidf("Invalid item name (make sure to click on the autocomplete option)")
		}
		desc := fmt.Sprintf("Collection log item %q", item)
		return plan{shortDesc: desc, entries: []backend.Entry{backend.CollectionLogItem{
			RSN: player.RSN, ItemName: item, ScreenshotURLs: urls, Description: desc,
		}}}, nil

	case model.KindPestControl:
		return singleCount(r, "total_games", "Total games", "Pest Control Games", "%d games of pest control", contribution)

	case model.KindLMS:
		return singleCount(r, "kills", "Kills", "LMS Kills", "%d kills in LMS", contribution)

	case model.KindTitheFarm:
		return singleCount(r, "points", "Points", "Tithe Farm Points", "%d tithe farm points", contribution)

	case model.KindFarmingContracts:
		return singleCount(r, "contracts", "Contracts", "Farming Contracts", "%d farming contracts", contribution)

	case model.KindMTA:
		values := make([]int, len(mtaArenas))
		for i, arena := range mtaArenas {
			v, err := r.num(arena.field)
			if err != nil {
				return plan{}, err
			}
			values[i] = v
		}
		if err := nonNegative("Points", values...); err != nil {
			return plan{}, err
		}
		desc := fmt.Sprintf("%d/%d/%d/%d MTA points", values[0], values[1], values[2], values[3])
		p := plan{shortDesc: desc}
		for i, arena := range mtaArenas {
			p.entries = append(p.entries, contribution(arena.method, values[i], desc))
		}
		return p, nil

	case model.KindBarbarianAssault:
		p := plan{shortDesc: "BA points"}
		for _, name := range baFields {
			v, err := r.optionalNum(name)
			if err != nil {
				return plan{}, err
			}
			if err := nonNegative("BA arguments", v); err != nil {
				return plan{}, err
			}
			if v > 0 {
				p.entries = append(p.entries, contribution(baMethod(name), v, p.shortDesc))
			}
		}
		if len(p.entries) == 0 {
			return plan{}, model.Invalidf("At least one BA value must be greater than zero")
		}
		return p, nil

	case model.KindChallenge:
		minutes, err := r.num("minutes")
		if err != nil {
			return plan{}, err
		}
		seconds, err := r.num("seconds")
		if err != nil {
			return plan{}, err
		}
		tenths, err := r.num("tenths_of_seconds")
		if err != nil {
			return plan{}, err
		}
		if err := nonNegative("Times", minutes, seconds, tenths); err != nil {
			return plan{}, err
		}
		if seconds > 59 {
			return plan{}, model.Invalidf("seconds cannot be greater than 59")
		}
		if tenths > 9 {
			return plan{}, model.Invalidf("tenths_of_seconds cannot be greater than 9")
		}
		key, _ := r.str("challenge")
		challenge, ok := snap.Challenge(key)
		if !ok {
			return plan{}, model.Invalidf("Invalid challenge (make sure to click on the autocomplete option)")
		}
		desc := fmt.Sprintf("%s time of %02d:%02d.%d", challenge.Label(), minutes, seconds, tenths)
		entry := backend.ChallengeTime{
			RSN:            player.RSN,
			ChallengeName:  challenge.Name,
			Seconds:        float64(minutes*60+seconds) + float64(tenths)/10,
			ScreenshotURLs: urls,
			Description:    desc,
		}
		if challenge.RelayComponent != "" {
			relay := challenge.RelayComponent
			entry.RelayComponentName = &relay
		}
		return plan{shortDesc: desc, entries: []backend.Entry{entry}}, nil

	case model.KindRecord:
		key, _ := r.str("record")
		record, ok := snap.Record(key)
		if !ok {
			return plan{}, model.Invalidf("Invalid record (make sure to click on the autocomplete option)")
		}
		value, err := r.num("value")
		if err != nil {
			return plan{}, err
		}
		if err := nonNegative("Value", value); err != nil {
			return plan{}, err
		}
		video, _ := r.str("video_url")
		if !isHTTPURL(video) {
			return plan{}, model.Invalidf("video_url must be an http or https link")
		}
		raw, _ := r.str("completed_at")
		completed, err := parseDate(raw)
		if err != nil {
			return plan{}, model.Invalidf("completed_at must be a date like 2024-01-31")
		}
		desc := fmt.Sprintf("Record of %d for %s", value, record.Label())
		entry := backend.RecordEntry{
			RSN:         player.RSN,
			Skill:       strings.ToUpper(record.Skill),
			RawValue:    value,
			VideoURL:    video,
			CompletedAt: completed.Format(time.DateOnly),
			Description: desc,
		}
		if record.Handicap != "" {
			handicap := record.Handicap
			entry.HandicapName = &handicap
		}
		return plan{shortDesc: desc, entries: []backend.Entry{entry}}, nil
	}
	return plan{}, fmt.Errorf("unsupported submission kind %q", kind)
}

func singleCount(r fieldReader, field, label, method, descFormat string, contribution func(string, int, string) backend.Entry) (plan, error) {
	n, err := r.num(field)
	if err != nil {
		return plan{}, err
	}
	if err := nonNegative(label, n); err != nil {
		return plan{}, err
	}
	desc := fmt.Sprintf(descFormat, n)
	return plan{shortDesc: desc, entries: []backend.Entry{contribution(method, n, desc)}}, nil
}

// baMethod turns "high_gambles" into "BA High Gambles".
func baMethod(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return "BA " + strings.Join(words, " ")
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
