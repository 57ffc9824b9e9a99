//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Parses the mesh named by the MESH environment variable and prints it.
func (Run) Loader() error {
	mg.Deps(Build.Loader)
	args := []string{}
	if cfg := os.Getenv("CONFIG"); cfg != "" {
		args = append(args, "-config", cfg)
	}
	if os.Getenv("WATCH") != "" {
		args = append(args, "-watch")
	}
	mesh := os.Getenv("MESH")
	if mesh == "" {
		return fmt.Errorf("set MESH to a storage path, asset:<path> or raw:<id|name>")
	}
	fmt.Println("Run loader...")
	_, err := executeCmd("bin/anima-loader", withArgs(append(args, mesh)...), withStream())
	return err
}
