// Package storage provides the durable local state used by taskcal.
//
// State is a small set of records, each stored whole under a fixed key (the task
// snapshot lives under "todos", the session credential under "googleToken"). Every
// Backend implements the same Get/Put/Delete contract so the task store and the
// session never know where their bytes end up:
//
//   - file: one JSON file per key inside a data directory (default)
//   - nutsdb: an embedded nutsdb database inside the data directory
//   - valkey: a Valkey/Redis server
//   - postgres: a single key/value table
//   - memory: process memory only (tests, ephemeral runs)
package storage
