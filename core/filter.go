package core

import "github.com/smarty/glpkg/contracts"

// Filter keeps the artifacts whose package name is listed; an empty filter
// keeps everything.
func Filter(original []contracts.ArtifactSpec, filter []string) (filtered []contracts.ArtifactSpec) {
	if len(filter) == 0 {
		return original
	}
	for _, artifact := range original {
		if contains(filter, artifact.Package) {
			filtered = append(filtered, artifact)
		}
	}
	return filtered
}

func contains(haystack []string, needle string) bool {
	for _, straw := range haystack {
		if straw == needle {
			return true
		}
	}
	return false
}
