package submission

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"showdown/model"
)

func sampleSubmission() *model.Submission {
	return &model.Submission{
		User: "zezima",
		RSN:  "Zezima",
		Team: "Team Rock",
		Kind: model.KindMonsterKillcount,
		Params: model.Params{
			{Name: "screenshot", Value: "https://cdn.example.com/a.png"},
			{Name: "monster", Value: "Zulrah"},
			{Name: "kc", Value: "50"},
		},
		ShortDesc: "50 KC of Zulrah",
		IDs:       []model.EntryID{"17"},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		sub  *model.Submission
	}{
		{name: "single entry", sub: sampleSubmission()},
		{name: "multiple entries", sub: &model.Submission{
			User: "mage", RSN: "Mage Main", Team: "Team Paper", Kind: model.KindMTA,
			Params: model.Params{
				{Name: "alchemy_points", Value: "10"},
				{Name: "graveyard_points", Value: "20"},
				{Name: "enchanting_points", Value: "30"},
				{Name: "telekinetic_points", Value: "40"},
			},
			ShortDesc: "10/20/30/40 MTA points",
			IDs:       []model.EntryID{"1", "2", "3", "4"},
		}},
		{name: "no entries", sub: &model.Submission{
			User: "ironman", RSN: "Iron", Team: "Team Scissors", Kind: model.KindLMS,
			Params: model.Params{}, ShortDesc: "0 kills in LMS", IDs: []model.EntryID{},
		}},
		{name: "awkward characters", sub: &model.Submission{
			User: "quote\"user", RSN: "R`s n", Team: "Team\nNewline", Kind: model.KindCollectionLog,
			Params:    model.Params{{Name: "item", Value: "Pet `snakeling` <3"}},
			ShortDesc: `Collection log item "Pet"`,
			IDs:       []model.EntryID{"a-b"},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := Encode(tc.sub)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if strings.Contains(token, "\n") {
				t.Fatalf("token spans multiple lines: %q", token)
			}
			got, err := Decode(token, nil)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !got.Equal(tc.sub) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, tc.sub)
			}
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := Encode(sampleSubmission())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := Encode(sampleSubmission())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if a != b {
		t.Fatalf("Encode not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "v1:") {
		t.Fatalf("expected version tag, got %q", a)
	}
}

func TestDecodeResolvesMember(t *testing.T) {
	token, _ := Encode(sampleSubmission())
	resolver := ResolverFunc(func(username string) (*model.Member, bool) {
		if username != "zezima" {
			t.Fatalf("unexpected username %q", username)
		}
		return &model.Member{ID: "42", Username: username}, true
	})
	got, err := Decode(token, resolver)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Member == nil || got.Member.ID != "42" {
		t.Fatalf("expected resolved member, got %+v", got.Member)
	}
	if got.Mention() != "<@42>" {
		t.Fatalf("unexpected mention %q", got.Mention())
	}

	unresolved, err := Decode(token, ResolverFunc(func(string) (*model.Member, bool) { return nil, false }))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if unresolved.Member != nil || unresolved.Mention() != "@zezima" {
		t.Fatalf("expected unresolved member fallback, got %+v", unresolved.Member)
	}
}

func TestDecodeMalformed(t *testing.T) {
	valid, _ := Encode(sampleSubmission())
	cases := map[string]string{
		"empty":            "",
		"no frame":         "garbage",
		"bad version":      "vX:2:{}",
		"future version":   "v9:2:{}",
		"length mismatch":  "v1:999:" + strings.SplitN(valid, ":", 3)[2],
		"truncated json":   "v1:5:{\"use",
		"missing user":     `v1:14:{"kind":"lms"}`,
		"unknown kind":     `v1:29:{"user":"a","kind":"fishing"}`,
		"duplicate params": `v1:86:{"user":"a","kind":"lms","params":[{"name":"x","value":"1"},{"name":"x","value":"2"}]}`,
		"legacy bad json":  `{"user":`,
		"legacy bad kind":  `{"user":"a","commandName":"submit_fishing","params":{}}`,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(token, nil); !errors.Is(err, ErrMalformedToken) {
				t.Fatalf("Decode(%q) error = %v, want ErrMalformedToken", token, err)
			}
		})
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	valid, err := Encode(sampleSubmission())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	body := strings.SplitN(valid, ":", 3)[2]
	body = strings.TrimSuffix(body, "}") + `,"reviewNote":"later","extra":{"n":[1,2]}}`
	token := fmt.Sprintf("v1:%d:%s", len(body), body)

	got, err := Decode(token, nil)
	if err != nil {
		t.Fatalf("Decode(%q): %v", token, err)
	}
	if !got.Equal(sampleSubmission()) {
		t.Fatalf("decode with extra fields mismatch: %+v", got)
	}
}

func TestDecodeLegacyToken(t *testing.T) {
	legacy := `{"user": "zezima", "rsn": "Zezima", "team": "Team Rock", "commandName": "submit_monster_killcount", ` +
		`"params": {"screenshot": "https://cdn.example.com/a.png", "monster": "Zulrah", "kc": "50"}, ` +
		`"shortDesc": "50 KC of Zulrah", "ids": [17]}`
	got, err := Decode(legacy, nil)
	if err != nil {
		t.Fatalf("Decode legacy: %v", err)
	}
	if !got.Equal(sampleSubmission()) {
		t.Fatalf("legacy decode mismatch: %+v", got)
	}
}

func TestExtract(t *testing.T) {
	body, err := Render(sampleSubmission())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	got, err := Extract("New approval requested:\n"+body, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !got.Equal(sampleSubmission()) {
		t.Fatalf("extract mismatch: %+v", got)
	}

	if _, err := Extract("just chatting\nnothing to see", nil); !errors.Is(err, ErrNotASubmission) {
		t.Fatalf("expected ErrNotASubmission, got %v", err)
	}
	if _, err := Extract("Submission json: `v1:2:xx`", nil); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}
