package submission

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"showdown/model"
	"showdown/utils"
)

const templeOverviewURL = "https://templeosrs.com/player/overview.php"

const (
	// HeaderReserve is the room kept free for the line posted above a rendered
	// record. Usernames are at most 32 characters, so "Approved by <name>:\n"
	// and the queue header both fit.
	HeaderReserve = 64

	// idWidth bounds one backend id when a record is sized before its
	// entries exist.
	idWidth = 20
)

// Summary renders the reviewer-facing lines of sub without the token.
func Summary(sub *model.Submission) string {
	var b strings.Builder
	b.WriteString("IDs: " + sub.IDList() + "\n")
	b.WriteString("RSN: " + sub.RSN + "\n")
	b.WriteString("Team: " + sub.Team + "\n")
	b.WriteString("Command: /" + sub.Kind.Command())
	for _, p := range sub.Params {
		b.WriteString("\n" + p.Name + ": " + p.Value)
	}
	if link := verificationLink(sub); link != "" {
		b.WriteString("\nTemple link to verify record: " + link)
	}
	return b.String()
}

// Render returns Summary followed by the marker line carrying the token.
func Render(sub *model.Submission) (string, error) {
	token, err := Encode(sub)
	if err != nil {
		return "", err
	}
	return Summary(sub) + "\n" + MarkerPrefix + token + MarkerSuffix, nil
}

// Fits reports whether sub, once it holds entries ids, renders short enough to
// be posted with any header.
func Fits(sub *model.Submission, entries int) (bool, error) {
	sized := *sub
	sized.IDs = make([]model.EntryID, entries)
	for i := range sized.IDs {
		sized.IDs[i] = model.EntryID(strings.Repeat("9", idWidth))
	}
	text, err := Render(&sized)
	if err != nil {
		return false, err
	}
	return utf8.RuneCountInString(text)+HeaderReserve <= utils.MaxMessageLength, nil
}

func verificationLink(sub *model.Submission) string {
	if sub.Kind != model.KindRecord {
		return ""
	}
	record, ok := sub.Params.Get("record")
	if !ok || record == "" {
		return ""
	}
	skill := strings.SplitN(record, "|", 2)[0]
	q := url.Values{}
	q.Set("player", strings.ToLower(sub.RSN))
	q.Set("skill", titleCase(skill))
	return fmt.Sprintf("%s?%s", templeOverviewURL, q.Encode())
}

// titleCase upper-cases the first letter of every word and lower-cases the rest.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
