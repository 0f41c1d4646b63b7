// Package store implements the persistence adapter from spec §4.4: the
// upsert contract for servers, players, and mods, the opt-out deletion
// rule, and the streaming rescan-candidate query.
package store

import (
	"context"
	"fmt"
	"iter"
	"net/netip"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sooox/serverseeker/internal/endpoint"
	"github.com/sooox/serverseeker/internal/status"
)

// UpsertOutcome classifies what Upsert did, distinguishing the
// first-class "opted out" outcome from an ordinary successful write
// (spec §4.4/§4.8 — ServerOptOut is informational, not an error).
type UpsertOutcome int

const (
	OutcomeOK UpsertOutcome = iota
	OutcomeOptOut
)

// Store owns the database connection pool. It is the only thing in the
// pipeline allowed to touch *pgxpool.Pool directly; the worker pool
// holds a shared reference to a Store, never to the pool itself.
type Store struct {
	pool *pgxpool.Pool
}

// Open builds a pgxpool.Pool from connString and wraps it in a Store.
// The pool's max connections should be configured much smaller than the
// worker permit count (spec §5) — that sizing lives in the pool config
// the caller builds, not in this package.
func Open(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() { s.pool.Close() }

// Upsert implements spec §4.4's upsert contract for a single endpoint's
// observation. All three writes (server, players, mods) are committed
// in one transaction per endpoint (SPEC_FULL.md §C.1): atomic per
// endpoint, without serializing unrelated endpoints behind one lock.
func (s *Store) Upsert(ctx context.Context, ep endpoint.Endpoint, resp status.Response, now int64) (UpsertOutcome, error) {
	if status.IsOptOut(resp.DescriptionFormatted) {
		if _, err := s.delete(ctx, s.pool, ep); err != nil {
			return OutcomeOK, fmt.Errorf("store: opt-out delete: %w", err)
		}
		return OutcomeOptOut, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return OutcomeOK, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := upsertServer(ctx, tx, ep, resp, now); err != nil {
		return OutcomeOK, err
	}
	if err := upsertPlayers(ctx, tx, ep, resp.Players.Sample, now); err != nil {
		return OutcomeOK, err
	}
	if err := insertMods(ctx, tx, ep, resp.ForgeData); err != nil {
		return OutcomeOK, err
	}

	if err := tx.Commit(ctx); err != nil {
		return OutcomeOK, fmt.Errorf("store: commit: %w", err)
	}
	return OutcomeOK, nil
}

func upsertServer(ctx context.Context, tx pgx.Tx, ep endpoint.Endpoint, resp status.Response, now int64) error {
	software := resp.Classify()
	var favicon *string
	if resp.Favicon != nil {
		favicon = resp.Favicon
	}

	const query = `
		INSERT INTO servers (
			address, port, software, version, protocol, icon,
			description_raw, description_formatted,
			prevents_chat_reports, enforces_secure_chat,
			first_seen, last_seen, online_players, max_players
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11,$12,$13)
		ON CONFLICT (address, port) DO UPDATE SET
			software = EXCLUDED.software,
			version = EXCLUDED.version,
			protocol = EXCLUDED.protocol,
			icon = EXCLUDED.icon,
			description_raw = EXCLUDED.description_raw,
			description_formatted = EXCLUDED.description_formatted,
			prevents_chat_reports = EXCLUDED.prevents_chat_reports,
			enforces_secure_chat = EXCLUDED.enforces_secure_chat,
			last_seen = EXCLUDED.last_seen,
			online_players = EXCLUDED.online_players,
			max_players = EXCLUDED.max_players`

	_, err := tx.Exec(ctx, query,
		ep.Addr.String(), ep.Port, string(software),
		resp.Version.Name, resp.Version.Protocol, favicon,
		resp.DescriptionRaw, resp.DescriptionFormatted,
		resp.PreventsChatReports, resp.EnforcesSecureChat,
		now, resp.Players.Online, resp.Players.Max,
	)
	if err != nil {
		return fmt.Errorf("store: upsert server: %w", err)
	}
	return nil
}

func upsertPlayers(ctx context.Context, tx pgx.Tx, ep endpoint.Endpoint, sample []status.Player, now int64) error {
	const query = `
		INSERT INTO players (address, port, uuid, name, first_seen, last_seen)
		VALUES ($1,$2,$3,$4,$5,$5)
		ON CONFLICT (address, port, uuid) DO UPDATE SET
			name = EXCLUDED.name,
			last_seen = EXCLUDED.last_seen`

	for _, p := range sample {
		id, ok := p.UUID()
		if !ok {
			// spec §3: malformed player IDs are skipped, not fatal.
			continue
		}
		if _, err := tx.Exec(ctx, query, ep.Addr.String(), ep.Port, id.String(), p.Name, now); err != nil {
			return fmt.Errorf("store: upsert player: %w", err)
		}
	}
	return nil
}

func insertMods(ctx context.Context, tx pgx.Tx, ep endpoint.Endpoint, forge *status.ForgeData) error {
	if forge == nil {
		return nil
	}
	const query = `
		INSERT INTO mods (address, port, id, mod_marker)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (address, port, id) DO NOTHING`

	for _, m := range forge.Mods {
		if m.ID == "" {
			continue
		}
		if _, err := tx.Exec(ctx, query, ep.Addr.String(), ep.Port, m.ID, m.Marker); err != nil {
			return fmt.Errorf("store: insert mod: %w", err)
		}
	}
	return nil
}

// Delete unconditionally removes an endpoint's server row, cascading to
// its players and mods rows.
func (s *Store) Delete(ctx context.Context, ep endpoint.Endpoint) (int64, error) {
	return s.delete(ctx, s.pool, ep)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
}

func (s *Store) delete(ctx context.Context, q execer, ep endpoint.Endpoint) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM servers WHERE address = $1 AND port = $2`, ep.Addr.String(), ep.Port)
	if err != nil {
		return 0, fmt.Errorf("store: delete: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpdateEnrichment writes a country/ASN attribution onto an existing
// server row without touching any scan-owned column (SPEC_FULL.md §B.6
// — the seam the out-of-scope geolocation ingester calls into).
func (s *Store) UpdateEnrichment(ctx context.Context, ep endpoint.Endpoint, country, asn string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE servers SET country = $1, asn = $2 WHERE address = $3 AND port = $4`,
		country, asn, ep.Addr.String(), ep.Port)
	if err != nil {
		return fmt.Errorf("store: update enrichment: %w", err)
	}
	return nil
}

// CountEndpoints returns the number of distinct servers currently
// tracked.
func (s *Store) CountEndpoints(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM servers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// StreamEndpoints returns every known server address ordered by
// last_seen ascending (oldest rescanned first, spec §4.4), without
// materializing the whole result set in memory: it is a Go 1.23+ iter
// sequence driven row-by-row from the cursor.
func (s *Store) StreamEndpoints(ctx context.Context) iter.Seq2[netip.Addr, error] {
	return func(yield func(netip.Addr, error) bool) {
		rows, err := s.pool.Query(ctx, `SELECT address FROM servers ORDER BY last_seen ASC`)
		if err != nil {
			yield(netip.Addr{}, fmt.Errorf("store: stream endpoints: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var addrText string
			if err := rows.Scan(&addrText); err != nil {
				if !yield(netip.Addr{}, fmt.Errorf("store: scan address: %w", err)) {
					return
				}
				continue
			}
			addr, err := netip.ParseAddr(addrText)
			if err != nil {
				if !yield(netip.Addr{}, fmt.Errorf("store: parse address %q: %w", addrText, err)) {
					return
				}
				continue
			}
			if !yield(addr, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(netip.Addr{}, fmt.Errorf("store: rows: %w", err))
		}
	}
}
