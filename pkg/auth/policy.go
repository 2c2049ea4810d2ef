package auth

// CanAccess is the authorization predicate applied uniformly across
// record-scoped operations: admins may access any record, everyone else
// only records they own.
//
// The predicate is total over the Role set; an unknown role denies.
func CanAccess(actor *Identity, resourceOwnerID string) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleInvestigator:
		return actor.UserID == resourceOwnerID
	default:
		return false
	}
}
