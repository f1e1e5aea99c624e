// Package access holds the read/mutate decisions applied to catalog entries.
//
// A requester id of 0 stands for an anonymous caller.
package access

// CanRead reports whether requester may read an entry owned by owner.
func CanRead(owner int64, isPublic bool, requester int64) bool {
	if isPublic {
		return true
	}
	return CanMutate(owner, requester)
}

// CanMutate reports whether requester may change an entry owned by owner.
func CanMutate(owner, requester int64) bool {
	return requester > 0 && requester == owner
}
