package database

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-faster/errors"
	"gorm.io/gorm"
)

var memorySeq atomic.Int64

// OpenMemory opens a private migrated in-memory SQLite store. The pool is
// pinned to one connection so the database lives as long as the handle.
func OpenMemory(name string) (*gorm.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, memorySeq.Add(1))
	db, err := Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "sql handle")
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
