// Copyright 2023 The powcoin Authors
// This file is part of the powcoin library.
//
// The powcoin library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The powcoin library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the powcoin library. If not, see <http://www.gnu.org/licenses/>.

// Package p2p holds the peer registry and the outbound replication client.
// The mesh is flat: every peer is an HTTP address, presence in the set is a
// hint and not a liveness guarantee.
package p2p

import (
	"sort"

	mapset "github.com/deckarep/golang-set"
)

// PeerSet is the registry of known peer addresses. Registration is
// idempotent; adding an address twice is a no-op.
type PeerSet struct {
	peers mapset.Set
}

// NewPeerSet creates an empty registry.
func NewPeerSet() *PeerSet {
	return &PeerSet{peers: mapset.NewSet()}
}

// Add registers a peer address, reporting whether it was newly added.
func (ps *PeerSet) Add(addr string) bool {
	return ps.peers.Add(addr)
}

// Contains reports whether the address is registered.
func (ps *PeerSet) Contains(addr string) bool {
	return ps.peers.Contains(addr)
}

// Len returns the number of registered peers.
func (ps *PeerSet) Len() int {
	return ps.peers.Cardinality()
}

// List returns the registered addresses in a stable order.
func (ps *PeerSet) List() []string {
	out := make([]string, 0, ps.peers.Cardinality())
	for addr := range ps.peers.Iter() {
		out = append(out, addr.(string))
	}
	sort.Strings(out)
	return out
}

// ListExcept returns the registered addresses minus the given one, the
// broadcast target set after adopting a chain offered by that peer.
func (ps *PeerSet) ListExcept(exclude string) []string {
	all := ps.List()
	out := all[:0]
	for _, addr := range all {
		if addr != exclude {
			out = append(out, addr)
		}
	}
	return out
}
