// api/schemas/metadata.go
package schemas

// FileMetadata tracks the parsing state of a single repository file.
// Timestamps are Unix seconds so the store stays portable across runs.
type FileMetadata struct {
	RelativePath    string  `json:"relative_path"`
	LastModified    float64 `json:"last_modified"`
	LastParsed      float64 `json:"last_parsed"`
	FileSize        int64   `json:"file_size"`
	ContentHash     string  `json:"content_hash,omitempty"`
	ParseSuccessful bool    `json:"parse_successful"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

// RepositoryMetadata is the process-independent change-detection state,
// loaded at run start and saved at the end-of-run checkpoint.
type RepositoryMetadata struct {
	RepoName          string                  `json:"repo_name"`
	RepoPath          string                  `json:"repo_path"`
	LastFullParse     float64                 `json:"last_full_parse"`
	TotalFilesTracked int                     `json:"total_files_tracked"`
	Files             map[string]FileMetadata `json:"files"`
}
