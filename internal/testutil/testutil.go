package testutil

import (
	"os"

	"github.com/pidev-project/pidev/internal/testdata"
)

// WriteStringToTempFile writes content to a temp file and returns the file
// path and a cleanup function.
func WriteStringToTempFile(content string) (string, func(), error) {
	tempFile, err := os.CreateTemp("", "pidev-test-*")
	if err != nil {
		return "", nil, err
	}

	if _, err := tempFile.WriteString(content); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return "", nil, err
	}
	tempFile.Close()

	cleanup := func() {
		os.Remove(tempFile.Name())
	}
	return tempFile.Name(), cleanup, nil
}

// CreateSSHKeyPairOnDisk materializes the dummy test key pair and returns
// (publicKeyPath, publicCleanup, privateKeyPath, privateCleanup).
func CreateSSHKeyPairOnDisk() (string, func(), string, func()) {
	publicKeyPath, cleanupPublic, err := WriteStringToTempFile(testdata.TestPublicSSHKeyMaterial)
	if err != nil {
		panic(err)
	}
	privateKeyPath, cleanupPrivate, err := WriteStringToTempFile(testdata.TestPrivateSSHKeyMaterial)
	if err != nil {
		panic(err)
	}
	return publicKeyPath, cleanupPublic, privateKeyPath, cleanupPrivate
}
