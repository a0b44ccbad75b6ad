package model

import (
	"fmt"
	"strings"
)

// Param is a single named submission field.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Params keeps submission fields in the order the user supplied them.
type Params []Param

// NewParams builds an ordered parameter list, rejecting duplicate names.
func NewParams(pairs ...Param) (Params, error) {
	params := make(Params, 0, len(pairs))
	seen := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		if p.Name == "" {
			return nil, fmt.Errorf("parameter name is empty")
		}
		if _, ok := seen[p.Name]; ok {
			return nil, fmt.Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		params = append(params, p)
	}
	return params, nil
}

// Get returns the value of the named parameter.
func (p Params) Get(name string) (string, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// Value returns the named parameter or an empty string.
func (p Params) Value(name string) string {
	v, _ := p.Get(name)
	return v
}

// EvidenceURLs returns the values of screenshot parameters in order.
func (p Params) EvidenceURLs() []string {
	var urls []string
	for _, param := range p {
		if IsEvidenceParam(param.Name) {
			urls = append(urls, param.Value)
		}
	}
	return urls
}

// Equal compares two parameter lists including order.
func (p Params) Equal(o Params) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// IsEvidenceParam reports whether a parameter carries an attachment URL.
func IsEvidenceParam(name string) bool {
	return strings.Contains(strings.ToLower(name), "screenshot")
}
