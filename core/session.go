package core

import (
	"context"
	"strconv"
	"strings"

	"github.com/smartystreets/logging"
	"golang.org/x/sync/singleflight"

	"github.com/smarty/glpkg/contracts"
)

// ClientFactory builds the API client for one server address.
type ClientFactory func(server string) (contracts.GitLab, error)

type SessionStorage interface {
	ArtifactStorage
	contracts.FileReader
	contracts.FileWriter
}

type SessionSettings struct {
	ServerAddress   string
	OutputDirectory string
	Offline         bool
	Progress        ProgressFactory
}

// Session owns every server, project and artifact looked up during one run.
// Each is created once per key and shared by all callers.
type Session struct {
	logger    *logging.Logger
	settings  SessionSettings
	clients   ClientFactory
	storage   SessionStorage
	extractor contracts.Extractor
	cache     *ProjectCache
	servers   *memo[*Server]
	downloads *singleflight.Group
}

func NewSession(settings SessionSettings, clients ClientFactory, storage SessionStorage, extractor contracts.Extractor) *Session {
	return &Session{
		settings:  settings,
		clients:   clients,
		storage:   storage,
		extractor: extractor,
		cache:     NewProjectCache(storage, settings.OutputDirectory),
		servers:   newMemo[*Server](),
		downloads: new(singleflight.Group),
	}
}

func (this *Session) Server(address string) (*Server, error) {
	address = normalizeServerAddress(address)
	if address == "" {
		address = normalizeServerAddress(this.settings.ServerAddress)
	}
	return this.servers.Get(address, func() (*Server, error) {
		client, err := this.clients(address)
		if err != nil {
			return nil, err
		}
		resolver := NewProjectResolver(client, this.cache, address, this.settings.Offline)
		resolver.logger = this.logger
		return &Server{
			session:    this,
			address:    address,
			client:     client,
			resolver:   resolver,
			projects:   newMemo[*Project](),
			registries: newMemo[*PackageRegistry](),
		}, nil
	})
}

// Artifact finds the artifact a listing entry describes, resolving its server
// and project on the way.
func (this *Session) Artifact(ctx context.Context, spec contracts.ArtifactSpec) (*Artifact, error) {
	server, err := this.Server(spec.Server)
	if err != nil {
		return nil, err
	}
	project, err := server.Project(ctx, spec.Project)
	if err != nil {
		return nil, err
	}
	return project.Artifact(spec), nil
}

func normalizeServerAddress(address string) string {
	return strings.TrimRight(strings.TrimSpace(address), "/")
}

//////////////////////////////////////////////////////////////////////

type Server struct {
	session    *Session
	address    string
	client     contracts.GitLab
	resolver   *ProjectResolver
	projects   *memo[*Project]
	registries *memo[*PackageRegistry]
}

func (this *Server) Address() string { return this.address }

func (this *Server) Project(ctx context.Context, reference string) (*Project, error) {
	reference = strings.TrimSpace(reference)
	return this.projects.Get(reference, func() (*Project, error) {
		id, err := this.resolver.Resolve(ctx, reference)
		if err != nil {
			return nil, err
		}
		registry, _ := this.registries.Get(strconv.Itoa(id), func() (*PackageRegistry, error) {
			return NewPackageRegistry(this.client, id), nil
		})
		return &Project{
			server:    this,
			reference: reference,
			registry:  registry,
			artifacts: newMemo[*Artifact](),
		}, nil
	})
}

//////////////////////////////////////////////////////////////////////

type Project struct {
	server    *Server
	reference string
	registry  *PackageRegistry
	artifacts *memo[*Artifact]
}

func (this *Project) Reference() string          { return this.reference }
func (this *Project) ID() int                    { return this.registry.ProjectID() }
func (this *Project) Registry() *PackageRegistry { return this.registry }

func (this *Project) Artifact(spec contracts.ArtifactSpec) *Artifact {
	artifact, _ := this.artifacts.Get(spec.Key(), func() (*Artifact, error) {
		session := this.server.session
		artifact := NewArtifact(spec, this.registry, this.server.client, session.storage, session.extractor, ArtifactSettings{
			ServerAddress:   this.server.address,
			OutputDirectory: session.settings.OutputDirectory,
			Offline:         session.settings.Offline,
			Progress:        session.settings.Progress,
		})
		artifact.logger = session.logger
		artifact.downloads = session.downloads
		return artifact, nil
	})
	return artifact
}
