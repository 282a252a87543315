package news

import (
	"crypto/sha256"
	"encoding/hex"
)

// Entry is one candidate article pulled from a feed source. Optional
// fields default to empty strings; defaults are applied once at the
// fetch boundary so downstream code never checks for missing values.
type Entry struct {
	Title      string
	Link       string
	Published  string // source-provided, kept opaque
	SourceName string
	Category   string
	ImageURL   string // feed-declared illustration, may be empty
	Summary    string // entry HTML body/summary, may be empty
}

// Fingerprint derives the dedup key for an entry: SHA-256 over the
// byte concatenation of link and title, hex encoded. Two entries with
// the same (link, title) always produce the same fingerprint. The
// concatenation carries no separator, so pairs whose link+title bytes
// are equal collide; accepted to stay compatible with existing ledger
// files keyed the same way.
func Fingerprint(link, title string) string {
	h := sha256.New()
	h.Write([]byte(link + title))
	return hex.EncodeToString(h.Sum(nil))
}

// ID returns the entry's fingerprint.
func (e Entry) ID() string {
	return Fingerprint(e.Link, e.Title)
}
