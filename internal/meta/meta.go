package meta

// CLIName is the binary name, used for config directories, env prefixes and
// the HTTP User-Agent.
const CLIName = "cardtrack"

// DefaultBaseURL is where the tracker backend listens when run locally.
const DefaultBaseURL = "http://127.0.0.1:8000"
