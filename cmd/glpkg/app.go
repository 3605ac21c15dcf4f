package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/smarty/glpkg/contracts"
	"github.com/smarty/glpkg/core"
	"github.com/smarty/glpkg/remote"
	"github.com/smarty/glpkg/shell"
)

type App struct {
	config  contracts.Config
	session *core.Session
}

func loadApp(cmd *cobra.Command, filter []string) (*App, error) {
	loader := core.NewConfigLoader(shell.NewDiskFileSystem(), shell.NewEnvironment(), os.Stdin)
	config, err := loader.LoadFromFlags(cmd.Flags(), filter)
	if err != nil {
		return nil, err
	}
	return NewApp(config), nil
}

func NewApp(config contracts.Config) *App {
	settings := core.SessionSettings{
		ServerAddress:   config.ServerAddress,
		OutputDirectory: config.OutputDirectory,
		Offline:         config.Offline,
	}
	if config.ShowProgress {
		settings.Progress = shell.NewProgressBar(os.Stderr)
	}
	disk := shell.NewDiskFileSystem()
	return &App{
		config:  config,
		session: core.NewSession(settings, newClientFactory(config), disk, shell.NewArchiveExtractor()),
	}
}

// The configured token only goes to the configured server; listing entries
// naming another server are accessed anonymously.
func newClientFactory(config contracts.Config) core.ClientFactory {
	return func(server string) (contracts.GitLab, error) {
		if config.Offline {
			return remote.NewOfflineClient(), nil
		}
		token := contracts.Token{}
		if server == config.ServerAddress {
			token = config.Token
		}
		var client contracts.GitLab = remote.NewGitLabClient(
			shell.NewHTTPClient(config.Timeout),
			shell.NewDownloadClient(config.Timeout),
			server,
			token,
		)
		if config.MaxRetry > 0 {
			client = remote.NewRetryClient(client, config.MaxRetry)
		}
		return client, nil
	}
}

// artifacts returns the filtered listing; a repeated entry (same server,
// project, file and directory) is kept once.
func (this *App) artifacts() ([]contracts.ArtifactSpec, error) {
	filtered := core.Filter(this.config.Listing.Artifacts, this.config.PackageFilter)
	if len(filtered) == 0 {
		return nil, errNothingListed
	}
	seen := make(map[string]bool)
	var unique []contracts.ArtifactSpec
	for _, spec := range filtered {
		key := spec.Key()
		if !seen[key] {
			seen[key] = true
			unique = append(unique, spec)
		}
	}
	return unique, nil
}

var errNothingListed = errors.New("no artifacts selected; pass --listing (and check the package filter)")
