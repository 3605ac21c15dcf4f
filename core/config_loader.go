package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/smarty/glpkg/contracts"
)

const (
	serverFlag   = "server"
	tokenFlag    = "token"
	projectFlag  = "project"
	outputFlag   = "output"
	offlineFlag  = "offline"
	timeoutFlag  = "timeout"
	retryFlag    = "max-retry"
	listingFlag  = "listing"
	progressFlag = "progress"
)

// RegisterFlags declares the options shared by every command.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(serverFlag, contracts.DefaultServerAddress,
		"Base address of the GitLab API (env: CI_API_V4_URL).")
	flags.String(tokenFlag, "",
		"Personal access token sent as PRIVATE-TOKEN (env: CI_JOB_TOKEN, GITLAB_TOKEN).")
	flags.String(projectFlag, "",
		"Project path or numeric ID used by listing entries that omit one (env: CI_PROJECT_ID).")
	flags.String(outputFlag, contracts.DefaultOutputDirectory,
		"Directory receiving downloads, extracted archives and the project cache (env: GLPKG_OUTPUT).")
	flags.Bool(offlineFlag, false,
		"Never contact the server; use cached project IDs and existing downloads (env: GLPKG_OFFLINE).")
	flags.Duration(timeoutFlag, contracts.DefaultTimeout,
		"Network timeout for API calls and connection setup.")
	flags.Int(retryFlag, 0,
		"How many times to retry API calls that fail with a transient error.")
	flags.String(listingFlag, "",
		"Path to the JSON or YAML artifact listing or, if equal to _STDIN_, read from stdin.")
	flags.Bool(progressFlag, false,
		"Show a progress bar while downloading.")
}

type ConfigLoader struct {
	storage contracts.FileReader
	env     contracts.Environment
	stdin   io.Reader
}

func NewConfigLoader(storage contracts.FileReader, env contracts.Environment, stdin io.Reader) *ConfigLoader {
	return &ConfigLoader{storage: storage, env: env, stdin: stdin}
}

// LoadFromFlags layers, from strongest to weakest: flags set on the command
// line, the listing file, the environment, built-in defaults.
func (this *ConfigLoader) LoadFromFlags(flags *pflag.FlagSet, filter []string) (config contracts.Config, err error) {
	settings := viper.New()
	if err = settings.BindPFlags(flags); err != nil {
		return contracts.Config{}, err
	}
	this.applyEnvironment(settings)

	config.ListingPath = settings.GetString(listingFlag)
	if config.ListingPath != "" {
		if err = this.readListing(settings, config.ListingPath); err != nil {
			return contracts.Config{}, err
		}
		if err = settings.UnmarshalKey("artifacts", &config.Listing.Artifacts); err != nil {
			return contracts.Config{}, fmt.Errorf("malformed listing %q: %w", config.ListingPath, err)
		}
	}

	config.ServerAddress = strings.TrimRight(strings.TrimSpace(settings.GetString(serverFlag)), "/")
	config.DefaultProject = strings.TrimSpace(settings.GetString(projectFlag))
	config.OutputDirectory = strings.TrimSpace(settings.GetString(outputFlag))
	config.Offline = settings.GetBool(offlineFlag)
	config.Timeout = settings.GetDuration(timeoutFlag)
	config.MaxRetry = settings.GetInt(retryFlag)
	config.ShowProgress = settings.GetBool(progressFlag)
	config.Token = this.resolveToken(flags)
	if len(filter) > 0 {
		config.PackageFilter = filter
	}

	for i := range config.Listing.Artifacts {
		artifact := &config.Listing.Artifacts[i]
		artifact.Server = strings.TrimRight(strings.TrimSpace(artifact.Server), "/")
		if artifact.Server == "" {
			artifact.Server = config.ServerAddress
		}
		if artifact.Project == "" {
			artifact.Project = config.DefaultProject
		}
	}

	if err = this.validate(config); err != nil {
		return contracts.Config{}, err
	}
	return config, nil
}

var environmentKeys = map[string]string{
	"CI_API_V4_URL": serverFlag,
	"CI_PROJECT_ID": projectFlag,
	"GLPKG_OUTPUT":  outputFlag,
	"GLPKG_OFFLINE": offlineFlag,
}

// Environment values sit just above the flag defaults.
func (this *ConfigLoader) applyEnvironment(settings *viper.Viper) {
	for variable, key := range environmentKeys {
		if value, set := this.env.LookupEnv(variable); set && value != "" {
			settings.SetDefault(key, value)
		}
	}
}

func (this *ConfigLoader) readListing(settings *viper.Viper, path string) error {
	raw, err := this.readRawListing(path)
	if err != nil {
		return err
	}
	settings.SetConfigType(listingFormat(path, raw))
	if err = settings.ReadConfig(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("malformed listing %q: %w", path, err)
	}
	return nil
}

func (this *ConfigLoader) readRawListing(path string) ([]byte, error) {
	if path == contracts.StdinListingPath {
		return io.ReadAll(this.stdin)
	}
	return this.storage.ReadFile(path)
}

func listingFormat(path string, raw []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return "json"
	}
	return "yaml"
}

// An explicit --token wins; otherwise a CI job token is preferred over a
// personal one.
func (this *ConfigLoader) resolveToken(flags *pflag.FlagSet) contracts.Token {
	if flag := flags.Lookup(tokenFlag); flag != nil && flag.Changed {
		return contracts.Token{Header: contracts.PrivateTokenHeader, Value: strings.TrimSpace(flag.Value.String())}
	}
	if value, set := this.env.LookupEnv("CI_JOB_TOKEN"); set && value != "" {
		return contracts.Token{Header: contracts.JobTokenHeader, Value: value}
	}
	if value, set := this.env.LookupEnv("GITLAB_TOKEN"); set && value != "" {
		return contracts.Token{Header: contracts.PrivateTokenHeader, Value: value}
	}
	return contracts.Token{}
}

func (this *ConfigLoader) validate(config contracts.Config) error {
	if config.MaxRetry < 0 {
		return maxRetryErr
	}
	if config.Timeout <= 0 {
		return timeoutErr
	}
	if config.ServerAddress == "" {
		return blankServerErr
	}
	if config.OutputDirectory == "" {
		return blankOutputErr
	}
	return config.Listing.Validate()
}

var (
	maxRetryErr    = errors.New("max-retry must not be negative")
	timeoutErr     = errors.New("timeout must be positive")
	blankServerErr = errors.New("server address should not be blank")
	blankOutputErr = errors.New("output directory should not be blank")
)
