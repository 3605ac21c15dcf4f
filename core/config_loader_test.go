package core

import (
	"bytes"
	"testing"
	"time"

	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"
	"github.com/spf13/pflag"

	"github.com/smarty/glpkg/contracts"
	"github.com/smarty/glpkg/shell"
)

func TestConfigLoaderFixture(t *testing.T) {
	gunit.Run(new(ConfigLoaderFixture), t)
}

type ConfigLoaderFixture struct {
	*gunit.Fixture

	loader      *ConfigLoader
	storage     *shell.InMemoryFileSystem
	environment shell.MapEnvironment
	stdin       *bytes.Buffer
	stderr      *bytes.Buffer
}

func (this *ConfigLoaderFixture) Setup() {
	this.storage = shell.NewInMemoryFileSystem()
	this.environment = make(shell.MapEnvironment)
	this.stdin = new(bytes.Buffer)
	this.stderr = new(bytes.Buffer)
	this.loader = NewConfigLoader(this.storage, this.environment, this.stdin)
}

func (this *ConfigLoaderFixture) load(args ...string) (contracts.Config, error) {
	flags := pflag.NewFlagSet("glpkg", pflag.ContinueOnError)
	flags.SetOutput(this.stderr)
	RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		return contracts.Config{}, err
	}
	return this.loader.LoadFromFlags(flags, flags.Args())
}

func (this *ConfigLoaderFixture) TestDefaults() {
	config, err := this.load()

	this.So(err, should.BeNil)
	this.So(config, should.Resemble, contracts.Config{
		ServerAddress:   contracts.DefaultServerAddress,
		OutputDirectory: contracts.DefaultOutputDirectory,
		Timeout:         contracts.DefaultTimeout,
	})
}

func (this *ConfigLoaderFixture) TestInvalidCLI() {
	config, err := this.load("--max-retry", "Hello, world!")

	this.So(err, should.NotBeNil)
	this.So(config, should.BeZeroValue)
}

func (this *ConfigLoaderFixture) TestNegativeRetryRejected() {
	_, err := this.load("--max-retry", "-1")

	this.So(err, should.Equal, maxRetryErr)
}

func (this *ConfigLoaderFixture) TestNonPositiveTimeoutRejected() {
	_, err := this.load("--timeout", "0s")

	this.So(err, should.Equal, timeoutErr)
}

func (this *ConfigLoaderFixture) TestEnvironmentOverridesDefaults() {
	this.environment["CI_API_V4_URL"] = " https://gitlab.example.com/api/v4/ "
	this.environment["CI_PROJECT_ID"] = "42"
	this.environment["GLPKG_OUTPUT"] = "cache"
	this.environment["GLPKG_OFFLINE"] = "true"

	config, err := this.load()

	this.So(err, should.BeNil)
	this.So(config.ServerAddress, should.Equal, "https://gitlab.example.com/api/v4")
	this.So(config.DefaultProject, should.Equal, "42")
	this.So(config.OutputDirectory, should.Equal, "cache")
	this.So(config.Offline, should.BeTrue)
}

func (this *ConfigLoaderFixture) TestFlagsOverrideEnvironment() {
	this.environment["CI_API_V4_URL"] = "https://env.example.com/api/v4"
	this.environment["GLPKG_OFFLINE"] = "true"

	config, err := this.load(
		"--server", "https://flag.example.com/api/v4",
		"--offline=false",
		"--max-retry", "3",
		"--timeout", "30s",
		"--progress",
		"tools", "docs",
	)

	this.So(err, should.BeNil)
	this.So(config.ServerAddress, should.Equal, "https://flag.example.com/api/v4")
	this.So(config.Offline, should.BeFalse)
	this.So(config.MaxRetry, should.Equal, 3)
	this.So(config.Timeout, should.Equal, 30*time.Second)
	this.So(config.ShowProgress, should.BeTrue)
	this.So(config.PackageFilter, should.Resemble, []string{"tools", "docs"})
}

func (this *ConfigLoaderFixture) TestJobTokenPreferredOverPersonalToken() {
	this.environment["CI_JOB_TOKEN"] = "job"
	this.environment["GITLAB_TOKEN"] = "personal"

	config, _ := this.load()

	this.So(config.Token, should.Resemble, contracts.Token{Header: contracts.JobTokenHeader, Value: "job"})
}

func (this *ConfigLoaderFixture) TestPersonalTokenFromEnvironment() {
	this.environment["GITLAB_TOKEN"] = "personal"

	config, _ := this.load()

	this.So(config.Token, should.Resemble, contracts.Token{Header: contracts.PrivateTokenHeader, Value: "personal"})
}

func (this *ConfigLoaderFixture) TestExplicitTokenFlagWins() {
	this.environment["CI_JOB_TOKEN"] = "job"

	config, _ := this.load("--token", "flag")

	this.So(config.Token, should.Resemble, contracts.Token{Header: contracts.PrivateTokenHeader, Value: "flag"})
}

func (this *ConfigLoaderFixture) TestJSONListingFromFile() {
	this.environment["CI_PROJECT_ID"] = "42"
	_ = this.storage.WriteFile("listing.json", []byte(`{
		"output": "from-listing",
		"artifacts": [
			{"package": "tools", "version": "1.0", "file": "tools.tar.gz"},
			{"project": "group/docs", "package": "docs", "version": "2.0", "file": "docs.bin", "suffix": ".zip", "directory": "manual"}
		]
	}`))

	config, err := this.load("--listing", "listing.json")

	this.So(err, should.BeNil)
	this.So(config.ListingPath, should.Equal, "listing.json")
	this.So(config.OutputDirectory, should.Equal, "from-listing")
	this.So(config.Listing.Artifacts, should.Resemble, []contracts.ArtifactSpec{
		{Server: contracts.DefaultServerAddress, Project: "42", Package: "tools", Version: "1.0", FileName: "tools.tar.gz"},
		{Server: contracts.DefaultServerAddress, Project: "group/docs", Package: "docs", Version: "2.0", FileName: "docs.bin", Suffix: ".zip", Directory: "manual"},
	})
}

func (this *ConfigLoaderFixture) TestYAMLListingFromStdin() {
	this.stdin.WriteString(`
project: group/tools
artifacts:
  - package: tools
    version: "1.0"
    file: tools.zip
`)

	config, err := this.load("--listing", contracts.StdinListingPath)

	this.So(err, should.BeNil)
	this.So(config.DefaultProject, should.Equal, "group/tools")
	this.So(config.Listing.Artifacts, should.Resemble, []contracts.ArtifactSpec{
		{Server: contracts.DefaultServerAddress, Project: "group/tools", Package: "tools", Version: "1.0", FileName: "tools.zip"},
	})
}

func (this *ConfigLoaderFixture) TestFlagOverridesListingFile() {
	_ = this.storage.WriteFile("listing.yaml", []byte("output: from-listing\n"))

	config, err := this.load("--listing", "listing.yaml", "--output", "from-flag")

	this.So(err, should.BeNil)
	this.So(config.OutputDirectory, should.Equal, "from-flag")
}

func (this *ConfigLoaderFixture) TestListingNotFound() {
	config, err := this.load("--listing", "missing.json")

	this.So(err, should.NotBeNil)
	this.So(config, should.BeZeroValue)
}

func (this *ConfigLoaderFixture) TestMalformedListing() {
	_ = this.storage.WriteFile("listing.json", []byte("Invalid JSON"))

	_, err := this.load("--listing", "listing.json")

	this.So(err, should.NotBeNil)
}

func (this *ConfigLoaderFixture) TestInvalidListingRejected() {
	_ = this.storage.WriteFile("listing.json", []byte(`{"artifacts": [{"project": "1", "package": "tools", "file": "tools.zip"}]}`))

	_, err := this.load("--listing", "listing.json")

	this.So(err, should.NotBeNil)
}

func (this *ConfigLoaderFixture) TestListingServerIsNormalized() {
	_ = this.storage.WriteFile("listing.json", []byte(`{"artifacts": [
		{"server": "https://other.example.com/api/v4/", "project": "1", "package": "tools", "version": "1.0", "file": "tools.zip"}
	]}`))

	config, err := this.load("--listing", "listing.json")

	this.So(err, should.BeNil)
	this.So(config.Listing.Artifacts[0].Server, should.Equal, "https://other.example.com/api/v4")
}

func (this *ConfigLoaderFixture) TestListingFormatDetection() {
	this.So(listingFormat("a.yml", nil), should.Equal, "yaml")
	this.So(listingFormat("a.JSON", nil), should.Equal, "json")
	this.So(listingFormat(contracts.StdinListingPath, []byte("  {}")), should.Equal, "json")
	this.So(listingFormat(contracts.StdinListingPath, []byte("artifacts: []")), should.Equal, "yaml")
}
