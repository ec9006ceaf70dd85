package entities

// NetworkRequest represents a runtime request to reach a network host.
type NetworkRequest struct {
	Host string
}

// FileSystemRequest represents a runtime request to access the filesystem.
type FileSystemRequest struct {
	Path      string
	Operation string // "read", "write"
}

// EnvRequest represents a runtime request to read an environment variable.
type EnvRequest struct {
	Variable string
}

// SystemRequest represents a runtime request to use a host system feature.
type SystemRequest struct {
	Feature string // "notifications", "clipboard"
}
