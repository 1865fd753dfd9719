package polyglot

// Name and Version identify the client to the service.
const (
	Name    = "polyglot"
	Version = "0.1.0"
)

// Build metadata, set with
//
//	go build -ldflags "-X github.com/ZaguanLabs/polyglot.GitCommit=$(git rev-parse HEAD)"
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// FullVersion is Version, plus "+" and the short commit when one was built in.
func FullVersion() string {
	if GitCommit == "" || GitCommit == "unknown" {
		return Version
	}
	commit := GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return Version + "+" + commit
}

// UserAgent is sent with every request to the service and to audio hosts.
func UserAgent() string {
	return Name + "/" + FullVersion()
}
