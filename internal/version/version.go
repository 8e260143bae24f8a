package version

// Build metadata for the varbuf CLI, overridable at link time:
//
//	-ldflags "-X varbuf/internal/version.Version=0.2.0 \
//	          -X varbuf/internal/version.GitCommit=$(git rev-parse HEAD)"
var (
	Version   = "0.1.0-dev"
	GitCommit = ""
	BuildDate = ""
)

// String renders the version, with the short commit hash appended when
// one was recorded at build time.
func String() string {
	if GitCommit == "" {
		return Version
	}
	c := GitCommit
	if len(c) > 12 {
		c = c[:12]
	}
	return Version + "+" + c
}
