// Package room provides the room domain model and its SQLite persistence.
//
// A room is a lightweight call space: an ID, a title, and the account
// that owns it. Ownership gates mutation — only the owner may rename or
// delete a room — while listing and retrieval are open to anyone.
//
// The repository returns rooms newest-first and supports an optional
// case-insensitive title search for the listing endpoint.
package room
