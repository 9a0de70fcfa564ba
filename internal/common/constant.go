package common

// AuthHeaderName is the HTTP header carrying the bearer access token on
// authenticated vault requests.
const AuthHeaderName = "Authorization"

// Local cache storage keys. CacheKeyManifest holds the current combined
// shape (manifest + sync metadata); the legacy split layout stored the
// manifest under CacheKeyLegacyManifest and its metadata separately under
// CacheKeyLegacyMeta.
const (
	CacheKeyManifest        = "manifest_data"
	CacheKeyPendingManifest = "manifest_pending"
	CacheKeyLegacyManifest  = "manifest"
	CacheKeyLegacyMeta      = "manifest_meta"
)
