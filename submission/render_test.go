package submission

import (
	"strings"
	"testing"
	"unicode/utf8"

	"showdown/model"
)

func TestRenderLayout(t *testing.T) {
	sub := sampleSubmission()
	text, err := Render(sub)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	lines := strings.Split(text, "\n")
	want := []string{
		"IDs: [17]",
		"RSN: Zezima",
		"Team: Team Rock",
		"Command: /submit_monster_killcount",
		"screenshot: https://cdn.example.com/a.png",
		"monster: Zulrah",
		"kc: 50",
	}
	if len(lines) != len(want)+1 {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want)+1, len(lines), text)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Fatalf("line %d = %q, want %q", i, lines[i], line)
		}
	}
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, MarkerPrefix) || !strings.HasSuffix(last, MarkerSuffix) {
		t.Fatalf("last line is not a marker: %q", last)
	}
}

func TestRenderIsPure(t *testing.T) {
	sub := sampleSubmission()
	a, err := Render(sub)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, _ := Render(sub)
	if a != b {
		t.Fatalf("Render returned different text for the same submission")
	}
	if !sub.Equal(sampleSubmission()) {
		t.Fatalf("Render mutated the submission")
	}
}

func TestRenderRecordLink(t *testing.T) {
	sub := &model.Submission{
		User: "skiller", RSN: "Lvl 3 Skiller", Team: "Team Rock", Kind: model.KindRecord,
		Params: model.Params{
			{Name: "record", Value: "WOODCUTTING|None"},
			{Name: "value", Value: "1200"},
		},
		ShortDesc: "Record of 1200 for Woodcutting",
		IDs:       []model.EntryID{"9"},
	}
	summary := Summary(sub)
	want := "Temple link to verify record: https://templeosrs.com/player/overview.php?player=lvl+3+skiller&skill=Woodcutting"
	if !strings.Contains(summary, want) {
		t.Fatalf("summary missing verification link:\n%s", summary)
	}
	if strings.Contains(summary, MarkerPrefix) {
		t.Fatalf("summary should not carry the token")
	}

	other := sampleSubmission()
	if strings.Contains(Summary(other), "Temple link") {
		t.Fatalf("non-record kinds must not get a verification link")
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"WOODCUTTING": "Woodcutting",
		"hunter":      "Hunter",
		"run energy":  "Run Energy",
		"ÉLAN vital":  "Élan Vital",
		"":            "",
	}
	for in, want := range cases {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTitleCaseKeepsValidUTF8(t *testing.T) {
	for _, in := range []string{"ÉLAN", "überskill", "日本 語"} {
		if got := titleCase(in); !utf8.ValidString(got) {
			t.Errorf("titleCase(%q) = %q is not valid UTF-8", in, got)
		}
	}
}

func TestFits(t *testing.T) {
	long := sampleSubmission()
	long.Params = model.Params{{Name: "screenshot", Value: "https://cdn.example.com/" + strings.Repeat("a", 1500)}}

	cases := []struct {
		name    string
		sub     *model.Submission
		entries int
		want    bool
	}{
		{"short", sampleSubmission(), 1, true},
		{"many entries", sampleSubmission(), 14, true},
		{"long link", long, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Fits(tc.sub, tc.entries)
			if err != nil {
				t.Fatalf("Fits: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Fits = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFitsDoesNotMutate(t *testing.T) {
	sub := sampleSubmission()
	if _, err := Fits(sub, 3); err != nil {
		t.Fatalf("Fits: %v", err)
	}
	if !sub.Equal(sampleSubmission()) {
		t.Fatalf("Fits changed its argument: %+v", sub)
	}
}
