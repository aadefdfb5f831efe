// Package voice wraps the speech engines installed on the host: listing
// their voices, speaking text with fixed parameters, and noticing when the
// installed voice set changes.
package voice

import "strings"

// Profile is a voice offered by an engine.
type Profile struct {
	// ID is the engine-specific identifier passed back when speaking.
	// Engines that address voices by name leave it equal to Name.
	ID string

	Name string
	Lang string
}

// Key identifies a voice. Some engines ship the same display name in
// several language packs, so the name alone is not unique.
type Key struct {
	Name string
	Lang string
}

// Key returns the identity of p.
func (p Profile) Key() Key {
	return Key{Name: p.Name, Lang: p.Lang}
}

// String renders the profile the way pickers show it: "Name (lang)".
func (p Profile) String() string {
	if p.Lang == "" {
		return p.Name
	}
	return p.Name + " (" + p.Lang + ")"
}

// IsZero reports whether k selects no voice.
func (k Key) IsZero() bool {
	return k.Name == "" && k.Lang == ""
}

// DefaultProfile picks the first voice whose name contains marker, or the
// first voice when none does. ok is false for an empty list.
func DefaultProfile(voices []Profile, marker string) (p Profile, ok bool) {
	if len(voices) == 0 {
		return Profile{}, false
	}
	if marker != "" {
		for _, v := range voices {
			if strings.Contains(v.Name, marker) {
				return v, true
			}
		}
	}
	return voices[0], true
}
