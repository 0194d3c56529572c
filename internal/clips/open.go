package clips

import (
	"fmt"
	"path/filepath"

	"github.com/keagan/clipdeck/internal/config"
	"github.com/keagan/clipdeck/pkg/util"
)

// Open returns the Store selected by cfg.Storage.Driver
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory, "":
		return NewManager(), nil
	case config.DriverSQLite:
		if err := util.EnsureDir(filepath.Dir(cfg.Storage.DBPath)); err != nil {
			return nil, err
		}
		return OpenSQLite(cfg.Storage.DBPath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
