package token

// Pair is the bearer credential pair issued by the token endpoint.
// Access is short-lived and attached to every authenticated request;
// Refresh is longer-lived and used solely to obtain a new access token.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// IsZero reports whether the pair carries no credentials at all.
func (p Pair) IsZero() bool {
	return p.Access == "" && p.Refresh == ""
}
