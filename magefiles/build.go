//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Tidies the module and builds the eomap binary into bin/.
func (Build) Editor() error {
	if err := goTidy(); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/eomap", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Cross compiles for js/wasm, where directory access is reported unsupported.
func (Build) Wasm() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/eomap.wasm", "."), withEnv("GOOS=js", "GOARCH=wasm"), withStream()); err != nil {
		return err
	}
	return nil
}
