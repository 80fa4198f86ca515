package chat

import "sort"

type registryEntry struct {
	profile Profile
	seq     uint64
}

// registry maps connection ids to profiles. It is only touched with the
// engine lock held.
type registry struct {
	entries map[string]*registryEntry
	nextSeq uint64
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*registryEntry)}
}

// register creates or overwrites the profile for id. An overwrite keeps the
// connection's original position in presence lists.
func (r *registry) register(id, username, room string) {
	if e, ok := r.entries[id]; ok {
		e.profile.Username = username
		e.profile.Room = room
		return
	}
	r.nextSeq++
	r.entries[id] = &registryEntry{
		profile: Profile{Username: username, ID: id, Room: room},
		seq:     r.nextSeq,
	}
}

func (r *registry) setRoom(id, room string) {
	if e, ok := r.entries[id]; ok {
		e.profile.Room = room
	}
}

func (r *registry) get(id string) (Profile, bool) {
	e, ok := r.entries[id]
	if !ok {
		return Profile{}, false
	}
	return e.profile, true
}

func (r *registry) unregister(id string) (Profile, bool) {
	e, ok := r.entries[id]
	if !ok {
		return Profile{}, false
	}
	delete(r.entries, id)
	return e.profile, true
}

// listByRoom returns the profiles currently in room, in registration order.
// An empty room yields an empty, non-nil slice so it encodes as [].
func (r *registry) listByRoom(room string) []Profile {
	return r.collect(func(p Profile) bool { return p.Room == room })
}

func (r *registry) all() []Profile {
	return r.collect(func(Profile) bool { return true })
}

func (r *registry) collect(keep func(Profile) bool) []Profile {
	matched := make([]*registryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if keep(e.profile) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	profiles := make([]Profile, len(matched))
	for i, e := range matched {
		profiles[i] = e.profile
	}
	return profiles
}

func (r *registry) count() int {
	return len(r.entries)
}
