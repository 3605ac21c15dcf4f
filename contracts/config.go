package contracts

import "time"

type Config struct {
	ServerAddress   string
	Token           Token
	DefaultProject  string
	OutputDirectory string
	Offline         bool
	Timeout         time.Duration
	MaxRetry        int
	ShowProgress    bool
	ListingPath     string
	PackageFilter   []string
	Listing         ArtifactListing
}

const (
	DefaultServerAddress   = "https://gitlab.com/api/v4"
	DefaultOutputDirectory = "build/gitlab"
	DefaultTimeout         = 5 * time.Second
	StdinListingPath       = "_STDIN_"

	// Beneath the output directory.
	DownloadsDirectory    = "packages"
	ProjectCacheDirectory = "projects"
)
