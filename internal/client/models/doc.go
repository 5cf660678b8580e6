// Package models defines the accounts-service data types shared by the
// transport, the token store and the session: tokens, users, profiles,
// request payloads and the in-memory session snapshot.
package models
