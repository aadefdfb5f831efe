package voice

import (
	"crypto/sha256"
	"sync"
)

// Catalog holds the most recent voice list reported by an engine.
type Catalog struct {
	mu     sync.RWMutex
	voices []Profile
}

// Replace swaps in a new voice list. Entries from the previous list are
// discarded, never merged.
func (c *Catalog) Replace(voices []Profile) {
	cp := make([]Profile, len(voices))
	copy(cp, voices)
	c.mu.Lock()
	c.voices = cp
	c.mu.Unlock()
}

// Voices returns a copy of the current list.
func (c *Catalog) Voices() []Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Profile, len(c.voices))
	copy(out, c.voices)
	return out
}

// Len returns the number of voices.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.voices)
}

// Lookup finds the voice with the given key. A key without a language
// matches the first voice with that exact name.
func (c *Catalog) Lookup(k Key) (Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.voices {
		if v.Key() == k || (k.Lang == "" && v.Name == k.Name) {
			return v, true
		}
	}
	return Profile{}, false
}

// Fingerprint hashes a voice list so two listings can be compared cheaply.
func Fingerprint(voices []Profile) [sha256.Size]byte {
	h := sha256.New()
	for _, v := range voices {
		h.Write([]byte(v.ID))
		h.Write([]byte{0})
		h.Write([]byte(v.Name))
		h.Write([]byte{0})
		h.Write([]byte(v.Lang))
		h.Write([]byte{0})
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
