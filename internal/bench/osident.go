package bench

import "os"

// osHostname and osUID/osGID back the default AUTH_UNIX credentials this
// client presents to the server. Kept as tiny wrappers so defaultCredentials
// stays easy to read and easy to override in tests.
func osHostname() (string, error) {
	return os.Hostname()
}

func osUID() int {
	return os.Getuid()
}

func osGID() int {
	return os.Getgid()
}
