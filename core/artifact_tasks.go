package core

import (
	"context"
	"errors"

	"github.com/smarty/glpkg/contracts"
)

func DownloadTaskName(key string) string { return "download:" + key }
func ExtractTaskName(key string) string  { return "extract:" + key }
func CleanTaskName(key string) string    { return "clean:" + key }

type ArtifactOperations interface {
	Key() string
	Download(ctx context.Context) (contracts.DownloadDecision, error)
	Extract(ctx context.Context) error
	Clean() error
}

// RegisterArtifactTasks adds the download, extract and clean tasks of one
// artifact. Extract always follows download.
func RegisterArtifactTasks(graph *TaskGraph, artifact ArtifactOperations) error {
	key := artifact.Key()
	return errors.Join(
		graph.Register(Task{
			Name: DownloadTaskName(key),
			Action: func(ctx context.Context) error {
				_, err := artifact.Download(ctx)
				return err
			},
		}),
		graph.Register(Task{
			Name:      ExtractTaskName(key),
			DependsOn: []string{DownloadTaskName(key)},
			Action:    artifact.Extract,
		}),
		graph.Register(Task{
			Name:   CleanTaskName(key),
			Action: func(context.Context) error { return artifact.Clean() },
		}),
	)
}
