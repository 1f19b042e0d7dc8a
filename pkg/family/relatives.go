package family

// Relative is a directly connected member and how it is connected.
type Relative struct {
	Relation string `json:"relation"`
	Member   Member `json:"member"`
}

// ImmediateFamily lists the members one connection away from id. Outgoing
// connections report their label; incoming ones report "Linked by <label>".
// Connections pointing at unknown members are skipped.
func ImmediateFamily(s Snapshot, id string, localize bool) []Relative {
	var out []Relative
	for _, c := range s.Connections {
		switch {
		case c.SourceID == id:
			if m, ok := s.Member(c.TargetID); ok {
				out = append(out, Relative{Relation: c.DisplayLabel(localize), Member: m})
			}
		case c.TargetID == id:
			if m, ok := s.Member(c.SourceID); ok {
				out = append(out, Relative{Relation: "Linked by " + c.DisplayLabel(localize), Member: m})
			}
		}
	}
	return out
}
