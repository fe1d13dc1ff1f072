package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/handrom/internal/clinical"
	"github.com/ayusman/handrom/internal/joint"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// TargetEntry is one stored joint target of an injury profile.
type TargetEntry struct {
	ID        string
	Injury    string
	Joint     joint.ID
	Target    clinical.Target
	UpdatedAt time.Time
}

// ProfileRepository provides CRUD operations for injury profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Upsert creates or replaces the target of a joint, creating the injury
// profile if needed.
func (r *ProfileRepository) Upsert(injury string, id joint.ID, t clinical.Target) error {
	return upsert(r.db, injury, id, t, time.Now())
}

func upsert(db execer, injury string, id joint.ID, t clinical.Target, now time.Time) error {
	if injury == "" {
		return fmt.Errorf("%w: empty injury type", clinical.ErrInvalidProfile)
	}
	if _, err := joint.Parse(string(id)); err != nil {
		return fmt.Errorf("%w: %v", clinical.ErrInvalidProfile, err)
	}
	if err := (clinical.Table{injury: {id: t}}).Validate(); err != nil {
		return err
	}

	if _, err := db.Exec(
		`INSERT INTO injury_profiles (injury, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(injury) DO UPDATE SET updated_at = excluded.updated_at`,
		injury, now, now,
	); err != nil {
		return err
	}

	_, err := db.Exec(
		`INSERT INTO profile_targets (id, injury, joint, normal_min, normal_max, target, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(injury, joint) DO UPDATE SET
			normal_min = excluded.normal_min,
			normal_max = excluded.normal_max,
			target = excluded.target,
			updated_at = excluded.updated_at`,
		uuid.NewString(), injury, string(id), t.NormalMin, t.NormalMax, t.TargetValue, now,
	)
	return err
}

// Get retrieves the target of a joint under an injury type.
func (r *ProfileRepository) Get(injury string, id joint.ID) (*TargetEntry, error) {
	e := &TargetEntry{}
	var jointID string

	err := r.db.QueryRow(
		`SELECT id, injury, joint, normal_min, normal_max, target, updated_at
		 FROM profile_targets WHERE injury = ? AND joint = ?`,
		injury, string(id),
	).Scan(&e.ID, &e.Injury, &jointID, &e.Target.NormalMin, &e.Target.NormalMax, &e.Target.TargetValue, &e.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	e.Joint = joint.ID(jointID)
	return e, nil
}

// List retrieves every stored target ordered by injury and joint.
func (r *ProfileRepository) List() ([]*TargetEntry, error) {
	rows, err := r.db.Query(
		`SELECT id, injury, joint, normal_min, normal_max, target, updated_at
		 FROM profile_targets ORDER BY injury, joint`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*TargetEntry
	for rows.Next() {
		e := &TargetEntry{}
		var jointID string

		err := rows.Scan(&e.ID, &e.Injury, &jointID, &e.Target.NormalMin, &e.Target.NormalMax, &e.Target.TargetValue, &e.UpdatedAt)
		if err != nil {
			return nil, err
		}

		e.Joint = joint.ID(jointID)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Injuries lists the stored injury types.
func (r *ProfileRepository) Injuries() ([]string, error) {
	rows, err := r.db.Query(`SELECT injury FROM injury_profiles ORDER BY injury`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes the target of one joint.
func (r *ProfileRepository) Delete(injury string, id joint.ID) error {
	result, err := r.db.Exec(`DELETE FROM profile_targets WHERE injury = ? AND joint = ?`, injury, string(id))
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteInjury removes an injury profile and all of its targets.
func (r *ProfileRepository) DeleteInjury(injury string) error {
	result, err := r.db.Exec(`DELETE FROM injury_profiles WHERE injury = ?`, injury)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Table loads every stored target as a classifier table.
func (r *ProfileRepository) Table() (clinical.Table, error) {
	entries, err := r.List()
	if err != nil {
		return nil, err
	}

	t := make(clinical.Table)
	for _, e := range entries {
		if t[e.Injury] == nil {
			t[e.Injury] = make(clinical.Profile)
		}
		t[e.Injury][e.Joint] = e.Target
	}
	return t, nil
}

// ImportTable upserts every target of t in a single transaction and returns
// the number written.
func (r *ProfileRepository) ImportTable(t clinical.Table) (int, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now()
	var n int
	for _, injury := range t.Injuries() {
		for id, target := range t[injury] {
			if err := upsert(tx, injury, id, target, now); err != nil {
				return 0, fmt.Errorf("%s/%s: %w", injury, id, err)
			}
			n++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}
