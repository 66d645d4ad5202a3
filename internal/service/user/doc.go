// Package user manages staff accounts: profile editing, avatar upload, and
// the operator tasks of creating users and granting the manager role.
//
// Login and session handling are external; identities arrive as verified
// bearer tokens.
package user
