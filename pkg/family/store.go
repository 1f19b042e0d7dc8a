package family

import "context"

// MemberStore persists members.
//
// UpdateMember and DeleteMember return an error carrying
// errors.ErrCodeMemberNotFound when the id is unknown. DeleteMember removes
// only the member; cascading to connections is [Service.DeleteMember]'s job.
type MemberStore interface {
	ListMembers(ctx context.Context) ([]Member, error)
	CreateMember(ctx context.Context, m Member) error
	UpdateMember(ctx context.Context, m Member) error
	DeleteMember(ctx context.Context, id string) error
}

// ConnectionStore persists connections.
type ConnectionStore interface {
	ListConnections(ctx context.Context) ([]Connection, error)
	CreateConnection(ctx context.Context, c Connection) error
	UpdateConnection(ctx context.Context, c Connection) error
	DeleteConnection(ctx context.Context, id string) error
}

// Store is the full persistence contract.
type Store interface {
	MemberStore
	ConnectionStore
	Close() error
}

// SelfClearer is implemented by stores that can reset every IsSelf flag
// except keepID in one atomic step. Stores without it are updated member by
// member.
type SelfClearer interface {
	ClearSelfExcept(ctx context.Context, keepID string) error
}

// Snapshot is a point-in-time copy of everything in a store.
type Snapshot struct {
	Members     []Member     `json:"members" yaml:"members"`
	Connections []Connection `json:"connections" yaml:"connections"`
}

// Member returns the member with the given id.
func (s Snapshot) Member(id string) (Member, bool) { return FindMember(s.Members, id) }

// Self returns the self member, if any.
func (s Snapshot) Self() (Member, bool) { return FindSelf(s.Members) }

// Clone returns a deep copy so callers can mutate it freely.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Members:     append([]Member(nil), s.Members...),
		Connections: append([]Connection(nil), s.Connections...),
	}
}
