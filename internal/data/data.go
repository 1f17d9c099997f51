package data

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ansel1/merry"
	"github.com/fpawel/castings/internal/casting"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/powerman/structlog"
)

//go:generate go run github.com/fpawel/gotools/cmd/sqlstr/...

var ErrStoreUnavailable = merry.New("store unavailable").WithHTTPCode(500)

const sqlSelectCasting = `
SELECT casting, years, cid, low_power, high_power, main_caps, COALESCE(comments, '') AS comments
FROM castings`

func Open(filename string) (*sqlx.DB, error) {
	db, err := openSqliteDBx(filename)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(SQLCreate); err != nil {
		_ = db.Close()
		return nil, merry.Append(err, "create schema")
	}
	return db, nil
}

// Store serves read queries against the castings table. Each call holds
// exactly one pooled connection for its duration.
type Store struct {
	db  *sqlx.DB
	log *structlog.Logger
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:  db,
		log: structlog.New(structlog.KeyUnit, "store"),
	}
}

func (s *Store) GetCasting(ctx context.Context, id string) (casting.Casting, error) {
	var c casting.Casting
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		err := conn.GetContext(ctx, &c, sqlSelectCasting+` WHERE casting = ?`, id)
		if err == sql.ErrNoRows {
			return casting.ErrNotFound.Here()
		}
		return storeError(err)
	})
	if err != nil {
		return casting.Casting{}, err
	}
	return c, nil
}

func (s *Store) ListCastings(ctx context.Context, page, limit int) (casting.Page, error) {
	if err := casting.ValidatePage(page, limit); err != nil {
		return casting.Page{}, err
	}
	p := casting.Page{
		Castings: []casting.Summary{},
		Page:     page,
		Limit:    limit,
	}
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		if err := conn.GetContext(ctx, &p.Total, `SELECT COUNT(*) FROM castings`); err != nil {
			return storeError(err)
		}
		return storeError(conn.SelectContext(ctx, &p.Castings, `
SELECT casting, years, cid FROM castings
ORDER BY casting
LIMIT ? OFFSET ?`, limit, casting.Offset(page, limit)))
	})
	if err != nil {
		return casting.Page{}, err
	}
	p.TotalPages = casting.TotalPages(p.Total, limit)
	return p, nil
}

func (s *Store) SearchCastings(ctx context.Context, q string) (casting.SearchResult, error) {
	if err := casting.ValidateQuery(q); err != nil {
		return casting.SearchResult{}, err
	}
	r := casting.SearchResult{
		Results: []casting.Casting{},
		Query:   q,
	}
	pattern := "%" + escapeLike(q) + "%"
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		return storeError(conn.SelectContext(ctx, &r.Results, sqlSelectCasting+`
WHERE casting LIKE ? ESCAPE '\'
   OR cid LIKE ? ESCAPE '\'
   OR years LIKE ? ESCAPE '\'
   OR comments LIKE ? ESCAPE '\'
ORDER BY casting`, pattern, pattern, pattern, pattern))
	})
	if err != nil {
		return casting.SearchResult{}, err
	}
	r.Count = len(r.Results)
	return r, nil
}

func (s *Store) withConn(ctx context.Context, work func(conn *sqlx.Conn) error) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return storeError(err)
	}
	defer s.log.ErrIfFail(conn.Close)
	return work(conn)
}

func storeError(err error) error {
	if err == nil {
		return nil
	}
	return ErrStoreUnavailable.Here().WithMessage("Database error: " + err.Error())
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func openSqliteDB(fileName string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", fileName)
	if err != nil {
		return nil, err
	}
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)
	return conn, err
}

func openSqliteDBx(fileName string) (*sqlx.DB, error) {
	conn, err := openSqliteDB(fileName)
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(conn, "sqlite3"), nil
}
