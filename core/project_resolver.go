package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/smartystreets/logging"

	"github.com/smarty/glpkg/contracts"
)

type ProjectResolver struct {
	logger  *logging.Logger
	finder  contracts.ProjectFinder
	cache   *ProjectCache
	server  string
	offline bool
}

func NewProjectResolver(finder contracts.ProjectFinder, cache *ProjectCache, server string, offline bool) *ProjectResolver {
	return &ProjectResolver{finder: finder, cache: cache, server: server, offline: offline}
}

// Resolve turns a project path or literal numeric ID into a project ID.
// Offline it answers from the cache only; online it always asks the API and
// refreshes the cache.
func (this *ProjectResolver) Resolve(ctx context.Context, reference string) (int, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return 0, fmt.Errorf("%w: blank project reference", contracts.ErrProjectUnresolved)
	}
	if id, err := strconv.Atoi(reference); err == nil && id > 0 {
		return id, nil
	}

	if this.offline {
		info, err := this.cache.Load(this.server, reference)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", contracts.ErrProjectUnresolved, reference, err)
		}
		return info.ID, nil
	}

	info, err := this.finder.FindProject(ctx, reference)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", contracts.ErrProjectUnresolved, reference, err)
	}
	if info.ID <= 0 {
		return 0, fmt.Errorf("%w: %q: invalid project id %d", contracts.ErrProjectUnresolved, reference, info.ID)
	}
	if err = this.cache.Store(this.server, reference, info); err != nil {
		this.logger.Printf("[WARN] Could not cache project id for %q: %s", reference, err)
	}
	return info.ID, nil
}
