package entities

// RepositoryKind identifies the upstream catalogue a RepositoryConfig
// points at.
type RepositoryKind int

const (
	RepositoryGitHub RepositoryKind = iota
	RepositoryModrinth
	RepositorySpigotMC
	RepositoryHangar
	RepositoryJenkins
	RepositoryLocal
)

func (k RepositoryKind) String() string {
	switch k {
	case RepositoryGitHub:
		return "github"
	case RepositoryModrinth:
		return "modrinth"
	case RepositorySpigotMC:
		return "spigotmc"
	case RepositoryHangar:
		return "hangar"
	case RepositoryJenkins:
		return "jenkins"
	case RepositoryLocal:
		return "local"
	default:
		return "unknown"
	}
}

// ParseRepositoryKind maps a catalogue file's "type" field to a
// RepositoryKind. The zero value and false are returned for an unknown kind.
func ParseRepositoryKind(s string) (RepositoryKind, bool) {
	switch s {
	case "github":
		return RepositoryGitHub, true
	case "modrinth":
		return RepositoryModrinth, true
	case "spigotmc":
		return RepositorySpigotMC, true
	case "hangar":
		return RepositoryHangar, true
	case "jenkins":
		return RepositoryJenkins, true
	case "local":
		return RepositoryLocal, true
	default:
		return 0, false
	}
}

// RepositoryConfig describes one upstream location for a plugin. Id's
// shape is kind-dependent: "owner/repo" for GitHub, a project slug for
// Modrinth/Hangar, a resource id for SpigotMC, a job path for Jenkins.
type RepositoryConfig struct {
	Kind                RepositoryKind
	ID                  string
	VersionPattern      string // optional regex; historically "versionModifier"
	DownloadURLTemplate string // optional
	FileNamePattern     string // optional regex; catalogue field "fileNamePattern" (a "fileNameRegex" key is not read)
	FileNameTemplate    string // optional
}

// RepositoryFile is a catalogue entry describing how to reach one or more
// upstream repositories for a single plugin name.
type RepositoryFile struct {
	ID           string
	Website      string
	Source       string
	License      string
	Repositories []RepositoryConfig
}

// PrimaryRepository returns repositories[0]. Spec §4.F: the resolution
// engine always takes the first entry; whether to fall back to further
// entries on failure is an open question left undecided (SPEC_FULL.md §4).
func (f *RepositoryFile) PrimaryRepository() (RepositoryConfig, bool) {
	if len(f.Repositories) == 0 {
		return RepositoryConfig{}, false
	}
	return f.Repositories[0], true
}
