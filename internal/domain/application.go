package domain

// ComposeFileNames lists the compose file names recognized in an application
// directory, in lookup order.
var ComposeFileNames = []string{
	"compose.yaml",
	"compose.yml",
	"docker-compose.yaml",
	"docker-compose.yml",
}

// Application is a compose-managed set of services sharing one directory.
type Application struct {
	Name        string
	Dir         string
	ComposeFile string
	Running     bool
}

// HasComposeFile reports whether a compose file was found for the application.
func (a Application) HasComposeFile() bool {
	return a.ComposeFile != ""
}
