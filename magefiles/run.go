//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and runs the editor with debug logging and hot reload.
func (Run) Editor() error {
	mg.Deps(Build.Editor)
	fmt.Println("Run editor...")
	if _, err := executeCmd("bin/eomap", withArgs("-log-level", "debug", "-watch"), withStream()); err != nil {
		return err
	}
	return nil
}
