//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Scrape builds the CLI and converts one resource into output/.
func Scrape(resource string) error {
	mg.Deps(Build)
	return sh.RunV("./bin/web2llm", resource)
}
