package types

// Well-known dataset names
const (
	// DatasetStable is the index of the latest std release
	DatasetStable = "std"
	// DatasetGit is the index of the main branch of the std repository
	DatasetGit = "git"
)
