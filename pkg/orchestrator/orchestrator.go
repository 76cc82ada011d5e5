package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/ahmetbarut/ratlog-install/pkg/httpclient"
	"github.com/ahmetbarut/ratlog-install/pkg/install"
	"github.com/ahmetbarut/ratlog-install/pkg/outcome"
	"github.com/ahmetbarut/ratlog-install/pkg/platform"
	"github.com/ahmetbarut/ratlog-install/pkg/release"
	"github.com/ahmetbarut/ratlog-install/pkg/source"
)

// Default bounds on the two kinds of network call the binary strategy makes.
const (
	DefaultMetadataTimeout = 30 * time.Second
	DefaultDownloadTimeout = 5 * time.Minute
)

// Strategy names one step of the fallback chain, used in attempt reports.
type Strategy string

const (
	StrategyLocalSource Strategy = "local source build"
	StrategyBinary      Strategy = "prebuilt binary"
	StrategyClone       Strategy = "clone and build"
)

// Attempt records one strategy and its result, in the order attempted. On
// total failure the report enumerates these so the user can address the most
// actionable reason instead of guessing.
type Attempt struct {
	Strategy Strategy
	Outcome  outcome.Outcome
}

// Config carries everything the orchestrator needs for one run. Explicit
// values override defaults; zero fields fall back in New.
type Config struct {
	// Repo is the "owner/name" GitHub repository.
	Repo string
	// RepoURL is the clone URL; derived from Repo when empty.
	RepoURL string
	// Branch is the branch cloned for source builds.
	Branch string
	// BinDir is the install directory ("" = per-user default).
	BinDir string
	// BinName is the executable name to install.
	BinName string
	// APIBaseURL overrides the release metadata endpoint.
	APIBaseURL string
	// SourceDir is checked for an existing source tree ("" = cwd).
	SourceDir string
	// ForceSource skips the prebuilt binary strategy entirely.
	ForceSource bool
	// MetadataTimeout bounds the release metadata request.
	MetadataTimeout time.Duration
	// DownloadTimeout bounds the asset download.
	DownloadTimeout time.Duration
}

// Collaborator contracts, satisfied by the real implementations in New and
// by fakes in tests.
type (
	// AssetResolver locates the release asset for a platform.
	AssetResolver interface {
		ResolveAsset(ctx context.Context, p platform.Platform) (release.Asset, error)
	}
	// ArtifactInstaller installs a located asset into the target directory.
	ArtifactInstaller interface {
		Install(ctx context.Context, asset release.Asset, targetDir string) outcome.Outcome
	}
	// SourceBuilder compiles a source tree and installs the result.
	SourceBuilder interface {
		Build(ctx context.Context, treeDir, targetDir string) outcome.Outcome
	}
	// SourceCloner obtains a temporary source tree. The returned cleanup
	// removes it and must be run on every exit path.
	SourceCloner interface {
		Clone(ctx context.Context) (dir string, cleanup func(), err error)
	}
)

// Orchestrator sequences the installation strategies: local source build if
// a tree is present, otherwise prebuilt binary, otherwise clone and build.
// Exactly one strategy succeeds per run or the final outcome is fatal.
type Orchestrator struct {
	cfg       Config
	resolver  AssetResolver
	installer ArtifactInstaller
	builder   SourceBuilder
	cloner    SourceCloner
	detect    func() platform.Platform
	isTree    func(dir string) bool
}

// New wires an orchestrator with the real collaborators.
func New(cfg Config) *Orchestrator {
	if cfg.BinName == "" {
		cfg.BinName = "ratlog"
	}
	if cfg.RepoURL == "" {
		cfg.RepoURL = fmt.Sprintf("https://github.com/%s.git", cfg.Repo)
	}
	if cfg.MetadataTimeout == 0 {
		cfg.MetadataTimeout = DefaultMetadataTimeout
	}
	if cfg.DownloadTimeout == 0 {
		cfg.DownloadTimeout = DefaultDownloadTimeout
	}
	return &Orchestrator{
		cfg: cfg,
		resolver: &release.Resolver{
			APIBaseURL: cfg.APIBaseURL,
			Repo:       cfg.Repo,
			Client:     httpclient.New(cfg.MetadataTimeout),
		},
		installer: &install.Installer{
			Client:  httpclient.New(cfg.DownloadTimeout),
			BinName: cfg.BinName,
		},
		builder: &source.Builder{BinName: cfg.BinName},
		cloner: &source.Cloner{
			RepoURL: cfg.RepoURL,
			Branch:  cfg.Branch,
		},
		detect: platform.Detect,
		isTree: func(dir string) bool { return source.IsTree(dir, cfg.BinName) },
	}
}

// Run executes the fallback chain and returns the final outcome together
// with every attempt made, in order.
func (o *Orchestrator) Run(ctx context.Context) (outcome.Outcome, []Attempt) {
	var attempts []Attempt
	record := func(s Strategy, out outcome.Outcome) outcome.Outcome {
		attempts = append(attempts, Attempt{Strategy: s, Outcome: out})
		return out
	}

	targetDir, err := install.ResolveInstallDir(o.cfg.BinDir)
	if err != nil {
		return record(StrategyBinary, outcome.Fatal(err)), attempts
	}

	srcDir := o.cfg.SourceDir
	if srcDir == "" {
		srcDir = "."
	}

	// A source tree in the working directory implies development intent:
	// build it and terminate on the result, good or bad.
	if o.isTree(srcDir) {
		log.WithField("dir", srcDir).Info("found local source tree, building it")
		return record(StrategyLocalSource, o.builder.Build(ctx, srcDir, targetDir)), attempts
	}

	if !o.cfg.ForceSource {
		out := o.tryBinary(ctx, targetDir, record)
		if out.Ok() || out.Kind == outcome.KindFatal {
			return out, attempts
		}
	} else {
		log.Info("source build forced, skipping prebuilt binary")
	}

	return o.cloneAndBuild(ctx, targetDir, record), attempts
}

// tryBinary attempts the prebuilt binary strategy. Any non-success outcome
// is recorded and the caller falls through to the clone strategy.
func (o *Orchestrator) tryBinary(ctx context.Context, targetDir string, record func(Strategy, outcome.Outcome) outcome.Outcome) outcome.Outcome {
	p := o.detect()
	if !p.Supported() {
		log.Info("no prebuilt binaries for this platform, falling back to source build")
		return record(StrategyBinary, outcome.NotAvailable(errors.New("unsupported platform")))
	}
	log.WithField("platform", p.String()).Info("looking for a prebuilt binary")

	asset, err := o.resolver.ResolveAsset(ctx, p)
	if err != nil {
		switch {
		case errors.Is(err, release.ErrNoAsset):
			log.WithError(err).Info("no prebuilt binary published, falling back to source build")
			return record(StrategyBinary, outcome.NotAvailable(err))
		default:
			// Covers transient resolver failures and cancellation alike;
			// the clone strategy will surface cancellation on its own.
			log.WithError(err).Warn("release lookup failed, falling back to source build")
			return record(StrategyBinary, outcome.Transient(err))
		}
	}

	out := record(StrategyBinary, o.installer.Install(ctx, asset, targetDir))
	if !out.Ok() {
		log.WithError(out.Err).Warn("binary install failed, falling back to source build")
	}
	return out
}

// cloneAndBuild is the strategy of last resort. The temporary clone is
// removed on every exit path; cleanup is deferred the moment the directory
// exists, so an interrupt mid-build still removes it.
func (o *Orchestrator) cloneAndBuild(ctx context.Context, targetDir string, record func(Strategy, outcome.Outcome) outcome.Outcome) outcome.Outcome {
	dir, cleanup, err := o.cloner.Clone(ctx)
	if err != nil {
		if errors.Is(err, source.ErrGitNotFound) {
			return record(StrategyClone, outcome.Fatal(err))
		}
		return record(StrategyClone, outcome.Fatal(errors.Wrap(err, "could not obtain source")))
	}
	defer cleanup()

	return record(StrategyClone, o.builder.Build(ctx, dir, targetDir))
}
