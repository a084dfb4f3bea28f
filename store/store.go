// Package store is the facade over the wide-column storage engine. Every
// statement it issues is idempotent: callers may retry any of them without
// user-visible harm. The driver prepares and caches statements per query
// string, so each statement is prepared once per node.
package store

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

type Store struct {
	session *gocql.Session
}

// Config addresses one storage node; the driver discovers the rest of the
// ring from it.
type Config struct {
	Host     string
	Username string
	Password string
	Keyspace string
}

const connectTimeout = 10 * time.Second

func Connect(cfg Config) (*Store, error) {
	cluster := gocql.NewCluster(cfg.Host)
	cluster.Keyspace = cfg.Keyspace
	cluster.Authenticator = gocql.PasswordAuthenticator{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	cluster.ConnectTimeout = connectTimeout

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to storage cluster: %w", err)
	}
	return &Store{session: session}, nil
}

func (s *Store) Close() {
	s.session.Close()
}
