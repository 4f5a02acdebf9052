package domain

// CallerIdentity is the result of a successful token validation.
// It is only ever produced by the session resolver.
type CallerIdentity struct {
	ID string
}

// Authorize reports whether caller owns a resource whose recorded owner is ownerID.
// The comparison is exact; no normalization is applied.
func Authorize(caller CallerIdentity, ownerID string) bool {
	return caller.ID == ownerID
}
