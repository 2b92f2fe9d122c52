package provision

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pidev-project/pidev/pkg/logger"
	"github.com/pidev-project/pidev/pkg/sshutils"
)

// uploadScript recreates the program directory from scratch rather than
// merging, so no stale files from a previous deployment survive. Every
// step short-circuits the rest on failure.
var uploadScript = NewScriptTemplate(`
set -e
rm -rf @{programDir}
mkdir -p @{programDir}
tar -xzf @{archivePath} -C @{programDir}
chmod +x @{assemblyPath}
rm -f @{archivePath}
exit 0
`)

var uploadScriptWithGroup = NewScriptTemplate(`
set -e
rm -rf @{programDir}
mkdir -p @{programDir}
tar -xzf @{archivePath} -C @{programDir}
chmod +x @{assemblyPath}
chgrp -R @{targetGroup} @{programDir}
rm -f @{archivePath}
exit 0
`)

// Uploader packages published binaries and atomically replaces the remote
// program directory.
type Uploader struct {
	transport sshutils.SSHConfiger
	log       *logger.Logger
}

// NewUploader creates an uploader over an established transport.
func NewUploader(transport sshutils.SSHConfiger) *Uploader {
	return &Uploader{
		transport: transport,
		log:       logger.Get(),
	}
}

// Upload packages the local publish folder and replaces
// ~/vsdbg/<programName> with its contents, marking the assembly executable
// and optionally handing the tree to targetGroup (e.g. to grant GPIO
// access). Names are validated before any remote command is issued because
// they end up inside shell scripts.
func (u *Uploader) Upload(
	ctx context.Context,
	programName, assemblyName, publishFolder, targetGroup string,
) (bool, error) {
	if err := ValidateName(programName); err != nil {
		return false, err
	}
	if err := ValidateName(assemblyName); err != nil {
		return false, err
	}
	if targetGroup != "" {
		if err := ValidateName(targetGroup); err != nil {
			return false, err
		}
	}

	archive, err := buildArchive(publishFolder)
	if err != nil {
		return false, fmt.Errorf("failed to package %s: %w", publishFolder, err)
	}

	archivePath := fmt.Sprintf("/tmp/pidev-upload-%d.tar.gz", time.Now().UnixNano())
	if err := u.transport.PushBytes(ctx, archivePath, archive, 0600); err != nil {
		return false, fmt.Errorf("failed to upload archive: %w", err)
	}

	// Paths relative to the connecting user's home, where exec and sftp
	// sessions both land. Remote paths are always POSIX regardless of the
	// local OS.
	programDir := path.Join(RemoteProgramRoot, programName)
	vars := map[string]string{
		"programDir":   programDir,
		"archivePath":  archivePath,
		"assemblyPath": path.Join(programDir, assemblyName),
	}
	template := uploadScript
	if targetGroup != "" {
		template = uploadScriptWithGroup
		vars["targetGroup"] = targetGroup
	}
	script, err := template.Render(vars)
	if err != nil {
		return false, err
	}

	u.log.Infof("deploying %s (%d bytes) to %s:%s",
		programName, len(archive), u.transport.Host(), programDir)
	result, err := u.transport.RunScript(ctx, script, false)
	if err != nil {
		return false, err
	}
	if !result.Success() {
		u.log.Errorf("deploy of %s failed on %s (exit %d): %s",
			programName, u.transport.Host(), result.ExitCode, result.Stderr)
		return false, nil
	}
	return true, nil
}

// buildArchive packs a directory into an in-memory tar.gz, preserving
// relative paths and file modes.
func buildArchive(dir string) ([]byte, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var buf bytes.Buffer
	gzWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzWriter)

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tarWriter, file)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := tarWriter.Close(); err != nil {
		return nil, err
	}
	if err := gzWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
