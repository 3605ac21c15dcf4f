package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/smarty/glpkg/contracts"
)

type projectCacheStorage interface {
	contracts.FileReader
	contracts.FileWriter
}

// ProjectCache persists resolved project IDs under <output>/projects/.
type ProjectCache struct {
	storage   projectCacheStorage
	directory string
}

func NewProjectCache(storage projectCacheStorage, outputDirectory string) *ProjectCache {
	return &ProjectCache{storage: storage, directory: filepath.Join(outputDirectory, contracts.ProjectCacheDirectory)}
}

func ProjectCacheKey(server, name string) string {
	sum := sha256.Sum256([]byte(server + "-" + name))
	return hex.EncodeToString(sum[:])
}

func (this *ProjectCache) Path(server, name string) string {
	return filepath.Join(this.directory, ProjectCacheKey(server, name)+".json")
}

// Load treats a missing, unreadable or malformed entry as absent.
func (this *ProjectCache) Load(server, name string) (contracts.ProjectInfo, error) {
	raw, err := this.storage.ReadFile(this.Path(server, name))
	if err != nil {
		return contracts.ProjectInfo{}, fmt.Errorf("%w: %s", contracts.ErrProjectNotCached, name)
	}
	var info contracts.ProjectInfo
	if err = json.Unmarshal(raw, &info); err != nil || info.ID <= 0 {
		return contracts.ProjectInfo{}, fmt.Errorf("%w: %s (corrupt cache entry)", contracts.ErrProjectNotCached, name)
	}
	return info, nil
}

func (this *ProjectCache) Store(server, name string, info contracts.ProjectInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return this.storage.WriteFile(this.Path(server, name), raw)
}
