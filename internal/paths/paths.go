// Package paths resolves the XDG-conforming locations where durable state
// lives, so the rest of the code never hardcodes a dotfile path.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// Name used for directory and file naming.
	appName = "relforge"

	// DefaultDirMode is the permission mode for directories we create.
	DefaultDirMode os.FileMode = 0755

	// DefaultFileMode is the permission mode for files we create.
	DefaultFileMode os.FileMode = 0644
)

// DataDir returns the directory for durable state such as the run ledger.
//
//	Linux:   ~/.local/share/relforge
//	macOS:   ~/Library/Application Support/relforge
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// LedgerFile returns the default path of the SQLite run ledger.
//
//	Linux:   ~/.local/share/relforge/ledger.db
//	macOS:   ~/Library/Application Support/relforge/ledger.db
func LedgerFile() string {
	return filepath.Join(DataDir(), "ledger.db")
}
