package core

// RosterEntry is a friend-list entry.
type RosterEntry struct {
	Username string
	Online   bool
	PhotoURL string
	Status   string
}

// Roster is the global friend list, partitioned into online and offline
// for display.
type Roster struct {
	entries []RosterEntry
	index   map[string]int
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{index: make(map[string]int)}
}

// ReplaceAll swaps the roster for a fresh snapshot.
func (r *Roster) ReplaceAll(entries []RosterEntry) {
	r.entries = r.entries[:0]
	r.index = make(map[string]int, len(entries))
	for _, e := range entries {
		r.Update(e)
	}
}

// Update inserts or refreshes a single entry.
func (r *Roster) Update(e RosterEntry) {
	if i, ok := r.index[e.Username]; ok {
		r.entries[i] = e
		return
	}
	r.index[e.Username] = len(r.entries)
	r.entries = append(r.entries, e)
}

// Len returns the number of entries.
func (r *Roster) Len() int { return len(r.entries) }

// Partitioned returns the roster split into online and offline entries,
// each preserving arrival order.
func (r *Roster) Partitioned() (online, offline []RosterEntry) {
	for _, e := range r.entries {
		if e.Online {
			online = append(online, e)
		} else {
			offline = append(offline, e)
		}
	}
	return online, offline
}

// Entries returns a copy of all entries, online first.
func (r *Roster) Entries() []RosterEntry {
	online, offline := r.Partitioned()
	return append(online, offline...)
}
