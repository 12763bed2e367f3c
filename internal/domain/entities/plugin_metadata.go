package entities

import "time"

// HistoryAction tags one entry in a PluginMetadata's install history.
type HistoryAction int

const (
	ActionAdd HistoryAction = iota
	ActionInstall
	ActionUpdate
	ActionLock
	ActionUnlock
	ActionCancelled
)

func (a HistoryAction) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionInstall:
		return "install"
	case ActionUpdate:
		return "update"
	case ActionLock:
		return "lock"
	case ActionUnlock:
		return "unlock"
	case ActionCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// PluginInfo carries the plugin's identity and the raw version string
// currently recorded as installed.
type PluginInfo struct {
	Name               string
	CurrentVersionRaw  string
}

// RepositoryRef pins the metadata record to the upstream it was resolved
// against, by kind and id only (not the full RepositoryConfig, which may
// change independently in the catalogue).
type RepositoryRef struct {
	Kind RepositoryKind
	ID   string
}

// VersionState tracks the currently-installed and latest-known-available
// locked versions, plus when latest was last refreshed.
type VersionState struct {
	Current       LockedVersion
	Latest        LockedVersion
	LastCheckedAt time.Time
}

// Settings are per-plugin operator toggles that survive install/update.
type Settings struct {
	Lock       bool
	AutoUpdate bool
	AutoCheck  bool
}

// HistoryEntry records one lifecycle transition applied to a plugin.
type HistoryEntry struct {
	Version     string
	InstalledAt time.Time
	Action      HistoryAction
}

// PluginMetadata is the per-plugin installed-state record, owned
// exclusively by the Metadata Store: created on add, mutated on
// install/update/lock/unlock, deleted on uninstall. Never written by a
// human.
type PluginMetadata struct {
	PluginInfo       PluginInfo
	Repository       RepositoryRef
	Version          VersionState
	Download         DownloadRecord
	Settings         Settings
	History          []HistoryEntry
	FileNamePattern  string // optional; overrides RepositoryConfig.FileNamePattern
	FileNameTemplate string // optional; overrides RepositoryConfig.FileNameTemplate
}

// AppendHistory records one transition, newest last.
func (m *PluginMetadata) AppendHistory(version string, at time.Time, action HistoryAction) {
	m.History = append(m.History, HistoryEntry{Version: version, InstalledAt: at, Action: action})
}
