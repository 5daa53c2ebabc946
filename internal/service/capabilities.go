package service

// Schema versions at which optional features become available.
const (
	SchemaVersionInit           uint = 1
	SchemaVersionMemberRequests uint = 2
)

// Capabilities describes what the connected database schema supports.
type Capabilities struct {
	SchemaVersion  uint `json:"schemaVersion"`
	MemberRequests bool `json:"memberRequests"`
}

// CapabilitiesForVersion derives the feature set of a migrated schema.
func CapabilitiesForVersion(version uint) Capabilities {
	return Capabilities{
		SchemaVersion:  version,
		MemberRequests: version >= SchemaVersionMemberRequests,
	}
}

// LatestCapabilities is what a fully migrated schema, or the in-memory store, provides.
func LatestCapabilities() Capabilities {
	return CapabilitiesForVersion(SchemaVersionMemberRequests)
}
