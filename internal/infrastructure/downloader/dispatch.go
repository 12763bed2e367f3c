package downloader

import (
	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/domain/entities"
)

// Dispatch is the DownloaderDispatch registry wiring each RepositoryKind to
// its concrete driver. RepositoryLocal has no entry: it names a
// RepositorySource (§4.D), not an upstream a Downloader talks to, so
// resolution for it never reaches this registry.
type Dispatch struct {
	drivers map[entities.RepositoryKind]ports.Downloader
}

// NewDispatch builds the registry from a fixed set of drivers, one per
// supported upstream kind.
func NewDispatch(githubHeaders map[string]string) *Dispatch {
	return &Dispatch{
		drivers: map[entities.RepositoryKind]ports.Downloader{
			entities.RepositoryGitHub:   NewGitHub(githubHeaders),
			entities.RepositoryModrinth: NewModrinth(),
			entities.RepositorySpigotMC: NewSpigotMC(),
			entities.RepositoryHangar:   NewHangar(),
			entities.RepositoryJenkins:  NewJenkins(),
		},
	}
}

// DriverFor returns the driver registered for kind.
func (d *Dispatch) DriverFor(kind entities.RepositoryKind) (ports.Downloader, bool) {
	drv, ok := d.drivers[kind]
	return drv, ok
}
