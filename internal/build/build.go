package build

import "fmt"

type Key struct{}

// InfoKey stores *Info on the command context.
var InfoKey = Key{}

// Info is populated at link time from main.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func (i *Info) String() string {
	if i == nil {
		return "dev"
	}
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Date)
}
