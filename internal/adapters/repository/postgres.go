package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/teammatch/internal/domain/model"
)

// Queries against the upstream roster schema. Ids are read as text so integer
// and uuid keyed tables work alike.
const (
	selectTeamsQuery   = `SELECT team_id::text, COALESCE(name, ''), COALESCE(max_members, 0) FROM "Team" ORDER BY team_id`
	selectMembersQuery = `SELECT user_id::text, COALESCE(team_id::text, ''), COALESCE(wants_team, false) FROM "Member" ORDER BY member_id`
	selectUsersQuery   = `SELECT user_id::text, COALESCE(role_ids, '') FROM "User" ORDER BY user_id`
	selectBeaconsQuery = `SELECT team_id::text, COALESCE(role_ids::text[], '{}') FROM "Beacons" ORDER BY team_id`
)

// PostgresSource reads roster snapshots from PostgreSQL.
type PostgresSource struct {
	pool *pgxpool.Pool
	sep  string
}

// NewPostgresSource opens a pool for dsn and checks connectivity.
func NewPostgresSource(ctx context.Context, dsn string, maxConns int32, sep string) (*PostgresSource, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pool: %w", err)
	}
	return &PostgresSource{pool: pool, sep: sep}, nil
}

// Close releases the pool.
func (p *PostgresSource) Close() error {
	p.pool.Close()
	return nil
}

// Snapshot reads all four tables inside one read-only repeatable-read
// transaction so the collections agree with each other.
func (p *PostgresSource) Snapshot(ctx context.Context) (Snapshot, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: begin: %w", ErrLoadRoster, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var snap Snapshot

	snap.Teams, err = collect(ctx, tx, selectTeamsQuery, func(row pgx.CollectableRow) (model.Team, error) {
		var t model.Team
		err := row.Scan(&t.ID, &t.Name, &t.MaxMembers)
		return t, err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: teams: %w", ErrLoadRoster, err)
	}

	snap.Members, err = collect(ctx, tx, selectMembersQuery, func(row pgx.CollectableRow) (model.Member, error) {
		var m model.Member
		err := row.Scan(&m.UserID, &m.TeamID, &m.WantsTeam)
		return m, err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: members: %w", ErrLoadRoster, err)
	}

	snap.Users, err = collect(ctx, tx, selectUsersQuery, func(row pgx.CollectableRow) (model.User, error) {
		var (
			u     model.User
			roles string
		)
		err := row.Scan(&u.ID, &roles)
		u.Roles = model.ParseRoles(roles, p.sep)
		return u, err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: users: %w", ErrLoadRoster, err)
	}

	snap.Beacons, err = collect(ctx, tx, selectBeaconsQuery, func(row pgx.CollectableRow) (model.Beacon, error) {
		var b model.Beacon
		err := row.Scan(&b.TeamID, &b.RoleIDs)
		return b, err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: beacons: %w", ErrLoadRoster, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("%w: commit: %w", ErrLoadRoster, err)
	}
	return snap, nil
}

func collect[T any](ctx context.Context, tx pgx.Tx, query string, fn pgx.RowToFunc[T]) ([]T, error) {
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, fn)
}
