// Package submission encodes submissions into the token embedded in review
// messages and renders the text reviewers see.
//
// The review channel is the only store for pending submissions: the token at
// the end of each message is everything needed to rebuild the record.
package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"showdown/model"
)

const (
	// Version is the token format written by Encode.
	Version = 1

	// MarkerPrefix and MarkerSuffix delimit the token line in a message body.
	MarkerPrefix = "Submission json: `"
	MarkerSuffix = "`"
)

var (
	// ErrMalformedToken means a marker was found but its token is unusable.
	ErrMalformedToken = errors.New("malformed submission token")
	// ErrNotASubmission means the message carries no submission marker.
	ErrNotASubmission = errors.New("message is not a submission")
)

// MemberResolver turns a stored username into a current member reference.
type MemberResolver interface {
	ResolveMember(username string) (*model.Member, bool)
}

// ResolverFunc adapts a function to MemberResolver.
type ResolverFunc func(username string) (*model.Member, bool)

func (f ResolverFunc) ResolveMember(username string) (*model.Member, bool) {
	return f(username)
}

type payload struct {
	User      string          `json:"user"`
	RSN       string          `json:"rsn"`
	Team      string          `json:"team"`
	Kind      model.Kind      `json:"kind"`
	Params    []model.Param   `json:"params"`
	ShortDesc string          `json:"shortDesc"`
	IDs       []model.EntryID `json:"ids"`
}

// Encode produces the single-line token for sub. The output depends only on
// sub.
func Encode(sub *model.Submission) (string, error) {
	p := payload{
		User:      sub.User,
		RSN:       sub.RSN,
		Team:      sub.Team,
		Kind:      sub.Kind,
		Params:    sub.Params,
		ShortDesc: sub.ShortDesc,
		IDs:       sub.IDs,
	}
	if p.Params == nil {
		p.Params = []model.Param{}
	}
	if p.IDs == nil {
		p.IDs = []model.EntryID{}
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}
	return fmt.Sprintf("v%d:%d:%s", Version, len(body), body), nil
}

// Decode rebuilds a submission from a token written by Encode, or from the
// bare JSON object the first bot generation wrote. resolver may be nil.
func Decode(token string, resolver MemberResolver) (*model.Submission, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	var (
		sub *model.Submission
		err error
	)
	if strings.HasPrefix(token, "{") {
		sub, err = decodeLegacy([]byte(token))
	} else {
		sub, err = decodeFramed(token)
	}
	if err != nil {
		return nil, err
	}

	if resolver != nil {
		if member, ok := resolver.ResolveMember(sub.User); ok {
			sub.Member = member
		}
	}
	return sub, nil
}

func decodeFramed(token string) (*model.Submission, error) {
	parts := strings.SplitN(token, ":", 3)
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "v") {
		return nil, fmt.Errorf("%w: missing frame", ErrMalformedToken)
	}
	version, err := strconv.Atoi(parts[0][1:])
	if err != nil {
		return nil, fmt.Errorf("%w: bad version %q", ErrMalformedToken, parts[0])
	}
	length, err := strconv.Atoi(parts[1])
	if err != nil || length != len(parts[2]) {
		return nil, fmt.Errorf("%w: length mismatch", ErrMalformedToken)
	}

	switch version {
	case 1:
		var p payload
		if err := json.Unmarshal([]byte(parts[2]), &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
		return p.toSubmission()
	default:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedToken, version)
	}
}

func (p payload) toSubmission() (*model.Submission, error) {
	if p.User == "" {
		return nil, fmt.Errorf("%w: missing user", ErrMalformedToken)
	}
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformedToken, p.Kind)
	}
	params, err := model.NewParams(p.Params...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	ids := p.IDs
	if ids == nil {
		ids = []model.EntryID{}
	}
	return &model.Submission{
		User:      p.User,
		RSN:       p.RSN,
		Team:      p.Team,
		Kind:      p.Kind,
		Params:    params,
		ShortDesc: p.ShortDesc,
		IDs:       ids,
	}, nil
}

type legacyPayload struct {
	User        string          `json:"user"`
	RSN         string          `json:"rsn"`
	Team        string          `json:"team"`
	CommandName string          `json:"commandName"`
	Params      orderedParams   `json:"params"`
	ShortDesc   string          `json:"shortDesc"`
	IDs         []model.EntryID `json:"ids"`
}

func decodeLegacy(data []byte) (*model.Submission, error) {
	var lp legacyPayload
	if err := json.Unmarshal(data, &lp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	kind, err := model.KindFromCommand(lp.CommandName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	p := payload{
		User:      lp.User,
		RSN:       lp.RSN,
		Team:      lp.Team,
		Kind:      kind,
		Params:    lp.Params,
		ShortDesc: lp.ShortDesc,
		IDs:       lp.IDs,
	}
	return p.toSubmission()
}

// orderedParams decodes a JSON object into params, keeping key order.
type orderedParams []model.Param

func (o *orderedParams) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("params must be an object")
	}
	var params []model.Param
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("params key is not a string")
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		params = append(params, model.Param{Name: key, Value: fmt.Sprint(value)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = params
	return nil
}

// Extract finds the marker line in a message body and decodes its token.
func Extract(body string, resolver MemberResolver) (*model.Submission, error) {
	token, ok := FindToken(body)
	if !ok {
		return nil, ErrNotASubmission
	}
	return Decode(token, resolver)
}

// FindToken returns the token from the last marker line in body.
func FindToken(body string) (string, bool) {
	lines := strings.Split(body, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, MarkerPrefix) && strings.HasSuffix(line, MarkerSuffix) && len(line) > len(MarkerPrefix) {
			return line[len(MarkerPrefix) : len(line)-len(MarkerSuffix)], true
		}
	}
	return "", false
}
