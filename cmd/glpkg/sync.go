package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/smarty/glpkg/contracts"
	"github.com/smarty/glpkg/core"
)

type artifactLookup func(spec contracts.ArtifactSpec) (core.ArtifactOperations, error)

// SyncApp downloads and extracts each artifact on its own goroutine and
// counts the failures.
type SyncApp struct {
	specs   []contracts.ArtifactSpec
	lookup  artifactLookup
	waiter  *sync.WaitGroup
	results chan error
}

func NewSyncApp(specs []contracts.ArtifactSpec, lookup artifactLookup) *SyncApp {
	waiter := new(sync.WaitGroup)
	waiter.Add(len(specs))
	return &SyncApp{
		specs:   specs,
		lookup:  lookup,
		waiter:  waiter,
		results: make(chan error),
	}
}

func (this *SyncApp) Run(ctx context.Context) (failed int) {
	for _, spec := range this.specs {
		go this.sync(ctx, spec)
	}
	go this.awaitCompletion()
	for err := range this.results {
		failed++
		log.Println("[WARN]", err)
	}
	return failed
}

func (this *SyncApp) awaitCompletion() {
	this.waiter.Wait()
	close(this.results)
}

func (this *SyncApp) sync(ctx context.Context, spec contracts.ArtifactSpec) {
	defer this.waiter.Done()

	log.Printf("Synchronizing artifact: %s", spec.Title())

	artifact, err := this.lookup(spec)
	if err != nil {
		this.results <- fmt.Errorf("failed to resolve %s: %w", spec.Title(), err)
		return
	}
	decision, err := artifact.Download(ctx)
	if err != nil {
		this.results <- fmt.Errorf("failed to download %s: %w", spec.Title(), err)
		return
	}
	if err = artifact.Extract(ctx); err != nil {
		this.results <- fmt.Errorf("failed to extract %s: %w", spec.Title(), err)
		return
	}

	log.Printf("Artifact synchronized (%s): %s", decision, spec.Title())
}
