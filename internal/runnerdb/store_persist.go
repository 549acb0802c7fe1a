package runnerdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"runnerdb/internal/logging"
)

const metaLastUpdated = "last_updated"

func (s *Store) load(ctx context.Context) error {
	st := newState()

	clubRows, err := s.db.QueryContext(ctx, `SELECT id, name FROM clubs`)
	if err != nil {
		return fmt.Errorf("query clubs: %w", err)
	}
	for clubRows.Next() {
		club := &Club{}
		if err := clubRows.Scan(&club.ID, &club.Name); err != nil {
			clubRows.Close()
			return fmt.Errorf("scan club: %w", err)
		}
		st.clubs[club.ID] = club
		st.clubByName[club.Name] = club.ID
		if club.ID >= st.nextClubID {
			st.nextClubID = club.ID + 1
		}
	}
	if err := closeRows(clubRows); err != nil {
		return fmt.Errorf("iterate clubs: %w", err)
	}

	runnerRows, err := s.db.QueryContext(ctx, `SELECT `+runnerColumns+` FROM runners`)
	if err != nil {
		return fmt.Errorf("query runners: %w", err)
	}
	for runnerRows.Next() {
		runner, err := scanRunner(runnerRows)
		if err != nil {
			runnerRows.Close()
			return fmt.Errorf("scan runner: %w", err)
		}
		st.runners[runner.ID] = runner
	}
	if err := closeRows(runnerRows); err != nil {
		return fmt.Errorf("iterate runners: %w", err)
	}

	aliasRows, err := s.db.QueryContext(ctx, `SELECT alias, club_id, created_at FROM club_aliases`)
	if err != nil {
		return fmt.Errorf("query aliases: %w", err)
	}
	for aliasRows.Next() {
		var (
			alias   ClubAlias
			created sql.NullString
		)
		if err := aliasRows.Scan(&alias.Alias, &alias.ClubID, &created); err != nil {
			aliasRows.Close()
			return fmt.Errorf("scan alias: %w", err)
		}
		alias.CreatedAt = parseNullTime(created)
		st.aliases[alias.Alias] = &alias
	}
	if err := closeRows(aliasRows); err != nil {
		return fmt.Errorf("iterate aliases: %w", err)
	}

	pairRows, err := s.db.QueryContext(ctx, `SELECT runner_id_1, runner_id_2, created_at FROM duplicate_suppressions`)
	if err != nil {
		return fmt.Errorf("query suppressions: %w", err)
	}
	for pairRows.Next() {
		var (
			a, b    string
			created sql.NullString
		)
		if err := pairRows.Scan(&a, &b, &created); err != nil {
			pairRows.Close()
			return fmt.Errorf("scan suppression: %w", err)
		}
		st.suppressed[NewPair(a, b)] = parseNullTime(created)
	}
	if err := closeRows(pairRows); err != nil {
		return fmt.Errorf("iterate suppressions: %w", err)
	}

	var lastUpdated sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = ?`, metaLastUpdated).Scan(&lastUpdated)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read last updated: %w", err)
	}
	st.lastUpdated = parseNullTime(lastUpdated)

	s.state = st
	return nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

const runnerColumns = "id, first_name, last_name, birth_year, sex, club, club_id, card_number, phone, email, nationality, times_used, last_used"

func scanRunner(scanner interface{ Scan(dest ...any) error }) (*Runner, error) {
	var (
		id          string
		firstName   string
		lastName    string
		birthYear   sql.NullInt64
		sex         sql.NullString
		club        sql.NullString
		clubID      sql.NullInt64
		cardNumber  sql.NullInt64
		phone       sql.NullString
		email       sql.NullString
		nationality sql.NullString
		timesUsed   sql.NullInt64
		lastUsed    sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&firstName,
		&lastName,
		&birthYear,
		&sex,
		&club,
		&clubID,
		&cardNumber,
		&phone,
		&email,
		&nationality,
		&timesUsed,
		&lastUsed,
	); err != nil {
		return nil, err
	}
	return &Runner{
		ID:          id,
		FirstName:   firstName,
		LastName:    lastName,
		BirthYear:   intPtr(birthYear),
		Sex:         Sex(sex.String),
		Club:        club.String,
		ClubID:      int64Ptr(clubID),
		CardNumber:  intPtr(cardNumber),
		Phone:       phone.String,
		Email:       email.String,
		Nationality: nationality.String,
		TimesUsed:   int(timesUsed.Int64),
		LastUsed:    parseNullTime(lastUsed),
	}, nil
}

// flushLocked writes every pending key in one transaction. Clubs are deleted
// and re-inserted so renames that swap names never trip the UNIQUE index;
// foreign keys are DEFERRABLE and checked at commit.
func (s *Store) flushLocked(ctx context.Context) error {
	if s.pending.empty() {
		return nil
	}
	started := time.Now()
	err := retryOnBusy(ctx, func() error {
		return s.writePending(ctx)
	})
	if err != nil {
		logging.WarnWithContext(s.logger, "store flush failed", "store_flush_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check disk space and permissions on the data directory"),
			logging.String(logging.FieldImpact, "changes remain in memory until the next successful save"))
		return fmt.Errorf("flush store: %w", err)
	}
	s.logger.Debug("store flushed",
		logging.Int("runners", len(s.pending.runners)),
		logging.Int("clubs", len(s.pending.clubs)),
		logging.Bool("rewrite", s.pending.rewrite),
		logging.Duration("duration", time.Since(started)))
	s.pending = newPending()
	return nil
}

func (s *Store) writePending(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin flush tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	st, p := s.state, s.pending
	if p.rewrite {
		if err := rewriteAll(ctx, tx, st); err != nil {
			return err
		}
	} else {
		if err := writeClubs(ctx, tx, st, p); err != nil {
			return err
		}
		if err := writeRunners(ctx, tx, st, p); err != nil {
			return err
		}
		if err := writeAliases(ctx, tx, st, p); err != nil {
			return err
		}
		if err := writePairs(ctx, tx, st, p); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO store_meta (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaLastUpdated, st.lastUpdated.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("write last updated: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flush: %w", err)
	}
	return nil
}

func rewriteAll(ctx context.Context, tx *sql.Tx, st *state) error {
	for _, table := range []string{"duplicate_suppressions", "club_aliases", "runners", "clubs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for _, club := range st.clubs {
		if err := insertClub(ctx, tx, club); err != nil {
			return err
		}
	}
	for _, runner := range st.runners {
		if err := upsertRunnerRow(ctx, tx, runner); err != nil {
			return err
		}
	}
	for _, alias := range st.aliases {
		if err := upsertAliasRow(ctx, tx, alias); err != nil {
			return err
		}
	}
	for pair, created := range st.suppressed {
		if err := upsertPairRow(ctx, tx, pair, created); err != nil {
			return err
		}
	}
	return nil
}

func writeClubs(ctx context.Context, tx *sql.Tx, st *state, p *pending) error {
	for id := range p.clubs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM clubs WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete club %d: %w", id, err)
		}
	}
	for id := range p.clubs {
		club, ok := st.clubs[id]
		if !ok {
			continue
		}
		if err := insertClub(ctx, tx, club); err != nil {
			return err
		}
	}
	return nil
}

func insertClub(ctx context.Context, tx *sql.Tx, club *Club) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO clubs (id, name) VALUES (?, ?)`, club.ID, club.Name); err != nil {
		return fmt.Errorf("insert club %d: %w", club.ID, err)
	}
	return nil
}

func writeRunners(ctx context.Context, tx *sql.Tx, st *state, p *pending) error {
	for id := range p.runners {
		runner, ok := st.runners[id]
		if !ok {
			if _, err := tx.ExecContext(ctx, `DELETE FROM runners WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete runner %s: %w", id, err)
			}
			continue
		}
		if err := upsertRunnerRow(ctx, tx, runner); err != nil {
			return err
		}
	}
	return nil
}

func upsertRunnerRow(ctx context.Context, tx *sql.Tx, r *Runner) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO runners (`+runnerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             first_name = excluded.first_name, last_name = excluded.last_name,
             birth_year = excluded.birth_year, sex = excluded.sex, club = excluded.club,
             club_id = excluded.club_id, card_number = excluded.card_number,
             phone = excluded.phone, email = excluded.email, nationality = excluded.nationality,
             times_used = excluded.times_used, last_used = excluded.last_used`,
		r.ID,
		r.FirstName,
		r.LastName,
		nullableInt(r.BirthYear),
		nullableString(string(r.Sex)),
		nullableString(r.Club),
		nullableInt64(r.ClubID),
		nullableInt(r.CardNumber),
		nullableString(r.Phone),
		nullableString(r.Email),
		r.Nationality,
		r.TimesUsed,
		nullableTime(r.LastUsed),
	)
	if err != nil {
		return fmt.Errorf("write runner %s: %w", r.ID, err)
	}
	return nil
}

func writeAliases(ctx context.Context, tx *sql.Tx, st *state, p *pending) error {
	for key := range p.aliases {
		alias, ok := st.aliases[key]
		if !ok {
			if _, err := tx.ExecContext(ctx, `DELETE FROM club_aliases WHERE alias = ?`, key); err != nil {
				return fmt.Errorf("delete alias %q: %w", key, err)
			}
			continue
		}
		if err := upsertAliasRow(ctx, tx, alias); err != nil {
			return err
		}
	}
	return nil
}

func upsertAliasRow(ctx context.Context, tx *sql.Tx, alias *ClubAlias) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO club_aliases (alias, club_id, created_at) VALUES (?, ?, ?)
         ON CONFLICT(alias) DO UPDATE SET club_id = excluded.club_id`,
		alias.Alias, alias.ClubID, alias.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write alias %q: %w", alias.Alias, err)
	}
	return nil
}

func writePairs(ctx context.Context, tx *sql.Tx, st *state, p *pending) error {
	for pair := range p.pairs {
		created, ok := st.suppressed[pair]
		if !ok {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM duplicate_suppressions WHERE runner_id_1 = ? AND runner_id_2 = ?`,
				pair.A, pair.B,
			); err != nil {
				return fmt.Errorf("delete suppression %s/%s: %w", pair.A, pair.B, err)
			}
			continue
		}
		if err := upsertPairRow(ctx, tx, pair, created); err != nil {
			return err
		}
	}
	return nil
}

func upsertPairRow(ctx context.Context, tx *sql.Tx, pair Pair, created time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO duplicate_suppressions (runner_id_1, runner_id_2, created_at) VALUES (?, ?, ?)`,
		pair.A, pair.B, created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write suppression %s/%s: %w", pair.A, pair.B, err)
	}
	return nil
}
