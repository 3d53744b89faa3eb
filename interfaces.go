// interfaces.go
// Core interfaces for henry: Explorer and the Connection descriptor it consumes.
// Engine packages under drivers/db implement Explorer.

package henry

import (
	"context"
	"fmt"
	"strconv"

	"github.com/burugo/henry/drivers/schema"
)

// Connection describes how to reach a database. For SQLite, Host holds the
// path of the database file and the remaining fields are ignored.
type Connection struct {
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
}

// Address returns host:port, or just the host when no port is set.
func (c Connection) Address() string {
	if c.Port == 0 {
		return c.Host
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// String renders the connection without the password.
func (c Connection) String() string {
	return fmt.Sprintf("%s@%s/%s", c.User, c.Address(), c.Database)
}

// Explorer extracts the full schema of one database. Implementations open
// a single connection per call and release it before returning.
type Explorer interface {
	Extract(ctx context.Context, conn Connection) (*schema.Database, error)
}

// ExplorerFactory creates a fresh Explorer.
type ExplorerFactory func() Explorer
