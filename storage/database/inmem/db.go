package inmemdb

import (
	"sync"

	"github.com/trezcool/shule/core/account"
)

type (
	// DB keeps accounts in memory. Used by tests and the `inmem` database engine.
	DB struct {
		students *table[account.Student]
		teachers *table[account.Teacher]
	}

	table[T account.Record] struct {
		rows  map[string]T // {id: record}
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		students: &table[account.Student]{rows: make(map[string]account.Student)},
		teachers: &table[account.Teacher]{rows: make(map[string]account.Teacher)},
	}
}

// Reset drops every record.
func (db *DB) Reset() {
	db.students.mutex.Lock()
	db.students.rows = make(map[string]account.Student)
	db.students.mutex.Unlock()

	db.teachers.mutex.Lock()
	db.teachers.rows = make(map[string]account.Teacher)
	db.teachers.mutex.Unlock()
}
