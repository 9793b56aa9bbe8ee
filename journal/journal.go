// Package journal is the sqlite backed store of blogbox. It keeps accounts,
// posts and (optionally) sessions in a single database file.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/mattn/go-sqlite3"
)

type (
	Journal struct {
		db  *sql.DB
		now func() time.Time
	}
)

// Open opens (and creates when needed) the journal stored at file.
func Open(ctx context.Context, file string) (*Journal, error) {
	err := os.MkdirAll(filepath.Dir(file), 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create directory to store journal %v, cause %w", file, err)
	}
	connstr := fmt.Sprintf("file:%v?_journal=wal&_foreign_keys=on&_busy_timeout=5000&mode=rwc", file)
	conn, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %w", file, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping journal %v, cause %w", file, err)
	}
	j := &Journal{db: conn, now: time.Now}
	err = j.init(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to init journal %v, cause %w", file, err)
	}
	return j, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) nextSeq(ctx context.Context, seq string) (int64, error) {
	var val int64
	err := j.db.QueryRowContext(ctx, `insert into counters (name, val) values (?, 1) on conflict do update set val = val + 1 returning val`, seq).Scan(&val)
	if err != nil {
		return 0, fmt.Errorf("unable to increment sequence %v, cause %w", seq, err)
	}
	return val, nil
}

func hash64(s string) int64 {
	return int64(xxhash.Sum64String(s))
}

func isUniqueViolation(err error) bool {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	return sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func (j *Journal) init(ctx context.Context) error {
	for _, cmd := range []string{
		`create table if not exists counters(
			name text not null primary key,
			val integer not null
		)`,
		`create table if not exists accounts(
			account_id integer not null primary key,
			credential text not null unique,
			credential_hash64 integer not null,
			secret_hash text not null,
			active integer not null default 1,
			created_at integer not null
		)`,
		`create index if not exists idx_accounts_credential_hash64
			on accounts(credential_hash64)`,
		`create table if not exists posts(
			post_id integer not null primary key,
			slug text not null unique,
			slug_hash64 integer not null,
			title text not null,
			body text not null,
			author_id integer not null,
			created_at integer not null,
			foreign key (author_id) references accounts(account_id)
		)`,
		`create index if not exists idx_posts_slug_hash64
			on posts(slug_hash64)`,
		`create table if not exists sessions(
			token text not null primary key,
			account_id integer not null,
			expires_at integer not null,
			foreign key (account_id) references accounts(account_id)
		)`,
	} {
		_, err := j.db.ExecContext(ctx, cmd)
		if err != nil {
			return err
		}
	}
	return nil
}
