package types

import "go/token"

// Change describes one rewrite performed (or proposed, in dry-run mode)
// by a rule.
type Change struct {
	Rule     string         `json:"rule"`
	Filename string         `json:"filename"`
	Message  string         `json:"message"`
	Old      string         `json:"old"`
	New      string         `json:"new"`
	Start    token.Position `json:"start"`
	End      token.Position `json:"end"`
}
