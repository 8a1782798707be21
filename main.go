package main

import (
	"os"

	"github.com/stackkeeper/stackkeeper/internal/adapters/in/cli"
	"github.com/stackkeeper/stackkeeper/pkg/version"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

func main() {
	version.Set(buildVersion, buildCommit, buildDate)
	os.Exit(cli.Execute())
}
