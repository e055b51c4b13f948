//go:build mage

// Package main provides build targets for the metastore project using Mage.
//
// Usage:
//
//	mage build        Compile the metastore binary to bin/
//	mage test:all     Run every test
//	mage test:race    Run every test with the race detector
//	mage test:cover   Run every test and write coverage.out
//	mage lint         Check gofmt, run go vet and golangci-lint
//	mage fmt          List files that need gofmt
//	mage vet          Run go vet
//	mage clean        Remove build artifacts
//	mage install      Install metastore to GOPATH/bin
//	mage stats        Print Go line counts per package
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "metastore"
	binaryDir  = "bin"
	cmdDir     = "./cmd/metastore"
)

// Build compiles the metastore binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	for _, path := range []string{binaryDir, coverProfile} {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
