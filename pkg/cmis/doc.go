// Package cmis holds the vocabulary shared by the in-memory CMIS repository
// engine: error kinds, base type and property identifiers, capability flags,
// content-stream metadata and the pluggable BlobStore and EventSink
// interfaces.
//
// The engine itself is split into subpackages:
//
//	acl      ordered, principal-unique permission lists
//	typedef  per-repository type registry
//	query    CMIS query compiler and predicate evaluator
//	store    object store with filing and versioning
//	service  object-service facade consumed by protocol bindings
//
// Blob backends for content streams live under storage/, configuration under
// config/ and a small JSON binding under api/.
package cmis
