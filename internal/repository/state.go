package repository

import (
	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

// State is the published snapshot of all bundles. Every key of Info is also a
// key of Sources; Order lists the uids of Sources by sort order.
type State struct {
	Sources map[int]bundles.Source
	Info    map[int]bundles.Info
	Order   []int
}

// EmptyState returns a state without bundles
func EmptyState() State {
	return State{
		Sources: map[int]bundles.Source{},
		Info:    map[int]bundles.Info{},
	}
}

// Source returns the bundle with uid
func (s State) Source(uid int) (bundles.Source, bool) {
	src, ok := s.Sources[uid]
	return src, ok
}

// Ordered returns the bundles in sort order
func (s State) Ordered() []bundles.Source {
	out := make([]bundles.Source, 0, len(s.Order))
	for _, uid := range s.Order {
		if src, ok := s.Sources[uid]; ok {
			out = append(out, src)
		}
	}
	return out
}

// Remotes returns the network-backed bundles in sort order
func (s State) Remotes() []bundles.Remote {
	var out []bundles.Remote
	for _, src := range s.Ordered() {
		if r, ok := bundles.AsRemote(src); ok {
			out = append(out, r)
		}
	}
	return out
}

// clone copies the maps and the order so the result can be modified
func (s State) clone() State {
	next := State{
		Sources: make(map[int]bundles.Source, len(s.Sources)),
		Info:    make(map[int]bundles.Info, len(s.Info)),
		Order:   append([]int(nil), s.Order...),
	}
	for k, v := range s.Sources {
		next.Sources[k] = v
	}
	for k, v := range s.Info {
		next.Info[k] = v
	}
	return next
}

// put replaces or appends a source
func (s *State) put(src bundles.Source) {
	if _, ok := s.Sources[src.UID()]; !ok {
		s.Order = append(s.Order, src.UID())
	}
	s.Sources[src.UID()] = src
}

// remove drops uid from every view of the state
func (s *State) remove(uid int) {
	delete(s.Sources, uid)
	delete(s.Info, uid)
	for i, v := range s.Order {
		if v == uid {
			s.Order = append(s.Order[:i:i], s.Order[i+1:]...)
			break
		}
	}
}
