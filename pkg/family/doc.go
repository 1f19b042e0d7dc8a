// Package family defines the member/connection data model and the store
// contract that every persistence backend implements.
//
// # Model
//
// A [Member] is a card on the canvas: display fields, a gender, an IsSelf flag
// and a world-space position (the top-left corner of its card). A
// [Connection] links two members through the handles on their cards and
// carries a label such as "Son" plus an optional localized label, color and
// line style.
//
// At most one member may be flagged IsSelf. The flagged member is the origin
// from which relationship labels are derived (see package kinship).
//
// # Stores
//
// [Store] is the capability interface the canvas is written against. Backends
// live under pkg/store (memory, file, badger, redis, mongo) and an async
// adapter wraps any of them. Writes are eventually consistent with a
// subsequent List; callers that need fresh data re-fetch explicitly.
//
// # Service
//
// [Service] layers the cross-entity rules on top of a Store:
//
//   - SaveMember clears every other IsSelf flag when saving a self member.
//   - DeleteMember deletes all incident connections first, then the member.
//   - Load fetches members and connections in parallel.
//
// Usage:
//
//	svc := family.NewService(store, logger)
//	snap, err := svc.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	if err := svc.DeleteMember(ctx, "2"); err != nil {
//	    return err
//	}
package family
