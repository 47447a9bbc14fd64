package buildinfo

// Ces variables sont typiquement injectées à la compilation via -ldflags.
// Exemple :
//
//	-X github.com/Guilhem-Bonnet/radiko-planner/internal/buildinfo.Version=v0.0.0
//	-X github.com/Guilhem-Bonnet/radiko-planner/internal/buildinfo.Commit=abcdef
//	-X github.com/Guilhem-Bonnet/radiko-planner/internal/buildinfo.Date=2026-10-19
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info est renvoyée par /api/v1/version et `radikoctl version`.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
}

func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}
