/*
Package session serializes merge batches that target the same policy.

Two batches for one policy number write renditions with overlapping form IDs,
so they must not interleave. The Manager keeps one reference-counted mutex per
policy in memory and can additionally take a distributed lock so that several
docmerge processes sharing a Redis backend queue behind each other.
*/
package session
