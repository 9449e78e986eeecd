package id

import "github.com/oklog/ulid/v2"

// New returns a fresh ULID. ULIDs sort lexicographically by creation time,
// which keeps DynamoDB range queries over created_at GSIs cheap.
func New() string {
	return ulid.Make().String()
}
