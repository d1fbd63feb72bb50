package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetUser(ctx context.Context, name string) (User, error) {
	var u User
	err := r.db.QueryRow(ctx,
		`SELECT name, superuser FROM users WHERE name = $1`, name).
		Scan(&u.Name, &u.Superuser)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to query user %s: %w", name, err)
	}
	return u, nil
}

func (r *Repository) GetGroup(ctx context.Context, id int64) (Group, error) {
	var g Group
	err := r.db.QueryRow(ctx,
		`SELECT id, name, galaxy_master, cpu_quota, mem_quota, COALESCE(max_cpu_limit, 0)
		 FROM groups WHERE id = $1`, id).
		Scan(&g.ID, &g.Name, &g.GalaxyMaster, &g.CPUQuota, &g.MemQuota, &g.MaxCPULimit)
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	if err != nil {
		return Group{}, fmt.Errorf("failed to query group %d: %w", id, err)
	}
	return g, nil
}

// IsGroupMember reports whether user belongs to the group. Membership rows
// are written by administrative provisioning only.
func (r *Repository) IsGroupMember(ctx context.Context, user string, groupID int64) (bool, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM group_members WHERE user_name = $1 AND group_id = $2`,
		user, groupID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query membership of %s in group %d: %w", user, groupID, err)
	}
	return n > 0, nil
}

// GetJob resolves a scheduler job id scoped to the scheduler instance that
// issued it. The same numeric id can exist under different masters.
func (r *Repository) GetJob(ctx context.Context, jobID int64, master string) (Job, error) {
	var j Job
	err := r.db.QueryRow(ctx,
		`SELECT j.job_id, j.group_id, j.meta, j.cpu_total, j.mem_total, j.created_at
		 FROM jobs j JOIN groups g ON j.group_id = g.id
		 WHERE j.job_id = $1 AND g.galaxy_master = $2`,
		jobID, master).
		Scan(&j.ID, &j.GroupID, &j.Meta, &j.CPUTotal, &j.MemTotal, &j.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("failed to query job %d on %s: %w", jobID, master, err)
	}
	return j, nil
}

// VisibleJobIDs returns the scheduler job ids on the given master that belong
// to groups the user is a member of.
func (r *Repository) VisibleJobIDs(ctx context.Context, user string, master string) (map[int64]bool, error) {
	rows, err := r.db.Query(ctx,
		`SELECT j.job_id
		 FROM jobs j
		 JOIN groups g ON j.group_id = g.id
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_name = $1 AND g.galaxy_master = $2`,
		user, master)
	if err != nil {
		return nil, fmt.Errorf("failed to query visible jobs for %s on %s: %w", user, master, err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan job id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

func (r *Repository) InsertJob(ctx context.Context, job Job) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO jobs (job_id, group_id, meta, cpu_total, mem_total)
		 VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.GroupID, job.Meta, job.CPUTotal, job.MemTotal)
	if err != nil {
		return fmt.Errorf("failed to insert job %d: %w", job.ID, err)
	}
	return nil
}

// GroupUsage sums the committed cpu and memory demand recorded for the
// group's jobs. Feeds the quota ledger.
func (r *Repository) GroupUsage(ctx context.Context, groupID int64) (int64, int64, error) {
	var cpu, mem int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(cpu_total), 0), COALESCE(SUM(mem_total), 0)
		 FROM jobs WHERE group_id = $1`, groupID).Scan(&cpu, &mem)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query usage for group %d: %w", groupID, err)
	}
	return cpu, mem, nil
}

// CreateGroup and AddGroupMember back the one-shot provisioning script; the
// console itself never writes groups or memberships.
func (r *Repository) CreateGroup(ctx context.Context, g Group) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO groups (name, galaxy_master, cpu_quota, mem_quota, max_cpu_limit)
		 VALUES ($1, $2, $3, $4, NULLIF($5, 0)) RETURNING id`,
		g.Name, g.GalaxyMaster, g.CPUQuota, g.MemQuota, g.MaxCPULimit).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create group %s: %w", g.Name, err)
	}
	return id, nil
}

func (r *Repository) AddGroupMember(ctx context.Context, user string, groupID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO group_members (user_name, group_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, user, groupID)
	if err != nil {
		return fmt.Errorf("failed to add %s to group %d: %w", user, groupID, err)
	}
	return nil
}

func (r *Repository) UpsertUser(ctx context.Context, u User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (name, superuser) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET superuser = EXCLUDED.superuser`,
		u.Name, u.Superuser)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", u.Name, err)
	}
	return nil
}
