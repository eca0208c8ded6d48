package config

import (
	"database/sql"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"github.com/relmq/relmq/diskstore"
	"github.com/relmq/relmq/sqlstore"
	"github.com/relmq/relmq/store"
)

// BuildStore constructs the store.MessageStore described by c.Store.
// The returned store's Setup has not yet been called.
func (c *Config) BuildStore() (store.MessageStore, error) {
	switch c.Store.Type {
	case StoreDisk:
		return diskstore.New(c.Store.Path, c.Store.Fsync), nil
	case StoreMySQL:
		sqlDB, err := sql.Open("mysql", mysqlDSN(c.Store))
		if err != nil {
			return nil, err
		}
		db := bun.NewDB(sqlDB, mysqldialect.New())
		return sqlstore.New(db), nil
	default:
		return nil, fmt.Errorf("config: unknown store type %q", c.Store.Type)
	}
}

// mysqlDSN builds a go-sql-driver/mysql DSN from s. The relmq_ table
// prefix named in s.Prefix is not yet honored by sqlstore's fixed table
// names (relmq_queues/relmq_topics) — see DESIGN.md.
func mysqlDSN(s StoreConfig) string {
	cfg := mysqldriver.NewConfig()
	cfg.User = s.Username
	cfg.Passwd = s.Password
	cfg.DBName = s.Database
	cfg.ParseTime = true
	if s.Socket != "" {
		cfg.Net = "unix"
		cfg.Addr = s.Socket
	} else {
		port := s.Port
		if port == 0 {
			port = 3306
		}
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", s.Host, port)
	}
	return cfg.FormatDSN()
}
