package contracts

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

type ArtifactListing struct {
	Artifacts []ArtifactSpec `json:"artifacts" mapstructure:"artifacts"`
}

func (this *ArtifactListing) Validate() error {
	inventory := make(map[string]ArtifactSpec) // map[extraction directory]artifact

	for _, artifact := range this.Artifacts {
		if artifact.Project == "" {
			return errors.New("project is required")
		}
		if artifact.Package == "" {
			return errors.New("package is required")
		}
		if artifact.Version == "" {
			return errors.New("version is required")
		}
		if artifact.FileName == "" {
			return errors.New("file is required")
		}
		if !isPathSegment(artifact.Package) {
			return fmt.Errorf("package must be a single path segment: %q", artifact.Package)
		}
		if !isPathSegment(artifact.Version) {
			return fmt.Errorf("version must be a single path segment: %q", artifact.Version)
		}
		if !isPathSegment(artifact.FileName) {
			return fmt.Errorf("file name must not contain a path separator: %q", artifact.FileName)
		}
		if artifact.DirectoryName() == "" {
			return fmt.Errorf("directory could not be derived for %s", artifact.Title())
		}
		if !isRelativeDirectory(artifact.DirectoryName()) {
			return fmt.Errorf("directory must be a relative path inside the output directory, not %q", artifact.DirectoryName())
		}

		directory := filepath.Clean(artifact.DirectoryName())
		if previous, found := inventory[directory]; found && previous.Key() != artifact.Key() {
			return fmt.Errorf("local directory conflict at %q: %s and %s", directory, previous.Title(), artifact.Title())
		}
		inventory[directory] = artifact
	}
	return nil
}

func isPathSegment(value string) bool {
	return value != "." && value != ".." && !strings.ContainsAny(value, `/\`)
}

func isRelativeDirectory(value string) bool {
	if filepath.IsAbs(value) || filepath.VolumeName(value) != "" || strings.HasPrefix(value, `\`) || strings.HasPrefix(value, "/") {
		return false
	}
	parts := strings.FieldsFunc(value, isSeparator)
	for _, part := range parts {
		if part == ".." {
			return false
		}
	}
	if len(parts) > 0 && (parts[0] == DownloadsDirectory || parts[0] == ProjectCacheDirectory) {
		return false
	}
	return filepath.Clean(value) != "."
}

func isSeparator(r rune) bool { return r == '/' || r == '\\' }

type ArtifactSpec struct {
	Server    string `json:"server,omitempty" mapstructure:"server"`
	Project   string `json:"project" mapstructure:"project"`
	Package   string `json:"package" mapstructure:"package"`
	Version   string `json:"version" mapstructure:"version"`
	FileName  string `json:"file" mapstructure:"file"`
	Suffix    string `json:"suffix,omitempty" mapstructure:"suffix"`
	Directory string `json:"directory,omitempty" mapstructure:"directory"`
}

// ArchiveSuffix is the declared suffix, or the one detected from the file name.
func (this ArtifactSpec) ArchiveSuffix() string {
	if this.Suffix != "" {
		return this.Suffix
	}
	return DetectArchiveSuffix(this.FileName)
}

func (this ArtifactSpec) DirectoryName() string {
	if this.Directory != "" {
		return this.Directory
	}
	return strings.TrimSuffix(this.FileName, this.ArchiveSuffix())
}

// Key identifies the package file (server, project, package, version and file)
// together with how it is unpacked.
func (this ArtifactSpec) Key() string {
	return strings.Join([]string{
		strings.TrimRight(strings.TrimSpace(this.Server), "/"),
		this.Project,
		this.Package,
		this.Version,
		this.FileName,
		this.ArchiveSuffix(),
		this.DirectoryName(),
	}, "|")
}

func (this ArtifactSpec) Title() string {
	return fmt.Sprintf("[%s: %s @ %s] %s", this.Project, this.Package, this.Version, this.FileName)
}

// Longer suffixes come first so ".tar.gz" wins over ".gz".
var ArchiveSuffixes = []string{
	".tar.gz",
	".tar.xz",
	".tar.bz2",
	".tar.zst",
	".tgz",
	".txz",
	".tbz2",
	".tzst",
	".tar",
	".zip",
}

func DetectArchiveSuffix(fileName string) string {
	lower := strings.ToLower(fileName)
	for _, suffix := range ArchiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return fileName[len(fileName)-len(suffix):]
		}
	}
	return ""
}

type DownloadDecision int

const (
	DecisionDownload DownloadDecision = iota
	DecisionSkip
	DecisionOffline
)

func (this DownloadDecision) String() string {
	switch this {
	case DecisionSkip:
		return "skip"
	case DecisionOffline:
		return "offline"
	default:
		return "download"
	}
}
