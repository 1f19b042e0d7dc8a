// Package kinship derives "relationship to me" labels from the connection
// graph.
//
// [Resolve] runs a breadth-first search from the member flagged IsSelf and
// returns the labels of the connections walked to reach the target, joined
// with [Separator]:
//
//	members: Self(1), A(2), B(3)
//	connections: 1→2 "Son", 2→3 "Wife"
//	Resolve("3", ...) == "Son › Wife"
//
// Connections are directed but walked in both directions. When several
// shortest paths exist, the one discovered first in connection order wins;
// this is a by-product of the traversal, not a rule callers should rely on.
//
// The search stops at [MaxDepth] hops. A member further away than that gets
// no label even if a longer path exists, which keeps derived labels short.
package kinship

import (
	"strings"

	"github.com/matzehuels/kinboard/pkg/family"
)

// MaxDepth is the longest path, in hops, that produces a label.
const MaxDepth = 3

// Separator joins hop labels.
const Separator = " › "

type hop struct {
	to    string
	label string
}

type visit struct {
	id     string
	labels []string
}

// Resolve returns the relationship path from the self member to targetID.
// ok is false when there is no self member, the target is the self member,
// or the target is not reachable within MaxDepth hops.
func Resolve(targetID string, members []family.Member, conns []family.Connection, localize bool) (label string, ok bool) {
	labels, ok := Path(targetID, members, conns, localize)
	if !ok {
		return "", false
	}
	return strings.Join(labels, Separator), true
}

// Path is Resolve without the final join.
func Path(targetID string, members []family.Member, conns []family.Connection, localize bool) ([]string, bool) {
	self, found := family.FindSelf(members)
	if !found || self.ID == targetID {
		return nil, false
	}

	adj := adjacency(conns, localize)

	queue := []visit{{id: self.ID}}
	seen := map[string]bool{self.ID: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.id == targetID {
			return cur.labels, true
		}
		if len(cur.labels) >= MaxDepth {
			continue
		}

		for _, h := range adj[cur.id] {
			if seen[h.to] {
				continue
			}
			seen[h.to] = true
			next := make([]string, len(cur.labels), len(cur.labels)+1)
			copy(next, cur.labels)
			queue = append(queue, visit{id: h.to, labels: append(next, h.label)})
		}
	}
	return nil, false
}

// adjacency indexes connections in iteration order, adding each one once per
// direction. Both directions carry the connection's own label.
func adjacency(conns []family.Connection, localize bool) map[string][]hop {
	adj := make(map[string][]hop, len(conns)*2)
	for _, c := range conns {
		label := c.DisplayLabel(localize)
		adj[c.SourceID] = append(adj[c.SourceID], hop{to: c.TargetID, label: label})
		adj[c.TargetID] = append(adj[c.TargetID], hop{to: c.SourceID, label: label})
	}
	return adj
}

// Labels resolves every member at once, keyed by member id. Members without
// a path are absent from the map.
func Labels(members []family.Member, conns []family.Connection, localize bool) map[string]string {
	out := make(map[string]string, len(members))
	for _, m := range members {
		if label, ok := Resolve(m.ID, members, conns, localize); ok {
			out[m.ID] = label
		}
	}
	return out
}
