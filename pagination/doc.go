// Package pagination turns a Bun select query and a page request into a
// deterministic page of results plus the total number of candidates.
//
// Ordering keys are resolved against the persisted model's schema, so an
// unknown key fails with types.ErrInvalidOrderKey instead of being ignored,
// and every ordering is completed by the identity column so that pages are
// stable across calls.
package pagination
