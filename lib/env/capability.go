package env

// capabilities is resolved from build tags and never written after package
// initialisation. Readers get copies.
var capabilities = map[Backend]bool{
	BackendLocal:  true,
	BackendHdfs:   hdfsCompiledIn,
	BackendMemory: true,
	BackendCustom: true,
}

// IsCompiledIn reports whether the backend was included in this build.
// A backend that is not compiled in is a normal, expected answer and not an error.
func IsCompiledIn(b Backend) bool {
	return capabilities[b]
}

// Capabilities returns a copy of the capability table.
func Capabilities() map[Backend]bool {
	table := make(map[Backend]bool, len(capabilities))
	for b, ok := range capabilities {
		table[b] = ok
	}
	return table
}
