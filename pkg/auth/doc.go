// Package auth defines the user model, the role system, password hashing,
// session token issuance and the authorization policy.
//
// Roles form a closed set (Investigator, Admin). The policy predicate
// CanAccess is a total function over that set: adding a role without
// updating the policy is a compile-time visible change, not a silent
// string comparison.
package auth
