package install

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/ahmetbarut/ratlog-install/pkg/archive"
	"github.com/ahmetbarut/ratlog-install/pkg/fetch"
	"github.com/ahmetbarut/ratlog-install/pkg/outcome"
	"github.com/ahmetbarut/ratlog-install/pkg/release"
)

// Installer downloads a release asset and places the executable it contains
// into the install directory.
type Installer struct {
	// Client performs the asset download. It must carry a timeout.
	Client *http.Client
	// BinName is the name of the executable to install.
	BinName string
}

// Install downloads the asset into a private temporary directory, unpacks it
// if it is an archive, and atomically installs the resulting executable into
// targetDir. The temporary directory is removed on every exit path.
//
// Failures here are reported as transient: a download or extraction problem
// on this strategy says nothing about whether a source build would work. The
// one exception is a target path occupied by a directory, which no strategy
// can fix.
func (i *Installer) Install(ctx context.Context, asset release.Asset, targetDir string) outcome.Outcome {
	if fatal := checkTargetUsable(targetDir, i.BinName); fatal != nil {
		return outcome.Fatal(fatal)
	}

	tmpDir, err := os.MkdirTemp("", "ratlog-install-")
	if err != nil {
		return outcome.Transient(errors.Wrap(err, "failed to create temporary directory"))
	}
	defer os.RemoveAll(tmpDir)

	assetPath := filepath.Join(tmpDir, asset.Name)
	log.WithField("url", asset.DownloadURL).Info("downloading release asset")
	if err := fetch.Download(ctx, i.Client, asset.DownloadURL, assetPath); err != nil {
		return outcome.Transient(errors.Wrapf(err, "failed to download %s", asset.Name))
	}

	binPath := assetPath
	if archive.DetectFormat(asset.Name) != archive.FormatRaw {
		extractDir := filepath.Join(tmpDir, "extracted")
		if err := os.MkdirAll(extractDir, 0755); err != nil {
			return outcome.Transient(errors.Wrap(err, "failed to create extraction directory"))
		}
		log.WithField("asset", asset.Name).Debug("extracting archive")
		if err := archive.Extract(assetPath, extractDir); err != nil {
			return outcome.Transient(errors.Wrapf(err, "failed to extract %s", asset.Name))
		}
		binPath, err = archive.FindExecutable(extractDir, i.BinName)
		if err != nil {
			return outcome.Transient(err)
		}
	}

	installed, err := InstallBinary(binPath, targetDir, i.BinName)
	if err != nil {
		return outcome.Transient(err)
	}
	return outcome.Success(installed)
}

// checkTargetUsable reports an unrecoverable environment problem with the
// install target, e.g. the binary path occupied by a directory.
func checkTargetUsable(targetDir, binName string) error {
	if info, err := os.Stat(targetDir); err == nil && !info.IsDir() {
		return errors.Errorf("install directory %s exists and is not a directory", targetDir)
	}
	if runtime.GOOS == "windows" && !strings.HasSuffix(binName, ".exe") {
		binName += ".exe"
	}
	targetPath := filepath.Join(targetDir, binName)
	if info, err := os.Stat(targetPath); err == nil && info.IsDir() {
		return errors.Errorf("install target %s is occupied by a directory", targetPath)
	}
	return nil
}
