package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rfinnegan/chorewheel/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

// --- Zone methods ---

func scanZone(scanner interface{ Scan(...any) error }) (*model.Zone, error) {
	var z model.Zone
	err := scanner.Scan(&z.ID, &z.HouseholdID, &z.Name, &z.SortOrder, &z.CreatedAt, &z.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &z, nil
}

const zoneCols = `id, household_id, name, sort_order, created_at, updated_at`

func (s *ChoreStore) ListZones(householdID int64) ([]model.Zone, error) {
	rows, err := s.db.Query(
		`SELECT `+zoneCols+` FROM zones WHERE household_id = ? ORDER BY sort_order ASC, name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var zones []model.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, *z)
	}
	return zones, rows.Err()
}

func (s *ChoreStore) GetZoneByID(id int64) (*model.Zone, error) {
	row := s.db.QueryRow(`SELECT `+zoneCols+` FROM zones WHERE id = ?`, id)
	z, err := scanZone(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get zone: %w", err)
	}
	return z, nil
}

func (s *ChoreStore) CreateZone(householdID int64, name string, sortOrder int) (*model.Zone, error) {
	result, err := s.db.Exec(
		`INSERT INTO zones (household_id, name, sort_order) VALUES (?, ?, ?)`,
		householdID, name, sortOrder,
	)
	if err != nil {
		return nil, fmt.Errorf("insert zone: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetZoneByID(id)
}

func (s *ChoreStore) UpdateZone(id int64, name string, sortOrder int) (*model.Zone, error) {
	_, err := s.db.Exec(
		`UPDATE zones SET name = ?, sort_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, sortOrder, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update zone: %w", err)
	}
	return s.GetZoneByID(id)
}

func (s *ChoreStore) DeleteZone(id int64) error {
	_, err := s.db.Exec(`DELETE FROM zones WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete zone: %w", err)
	}
	return nil
}

// --- Chore methods ---

// encodeRotation joins member ids as "3,7,12" for the rotation_sequence column.
func encodeRotation(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func decodeRotation(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("rotation sequence entry %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var zoneID, fixedAssignee sql.NullInt64
	var rotation string

	err := scanner.Scan(
		&c.ID, &c.HouseholdID, &zoneID, &c.Title, &c.Description,
		&c.FrequencyDays, &c.StartDate, &c.Strategy, &fixedAssignee,
		&rotation, &c.RotationIntervalDays, &c.Archived,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if zoneID.Valid {
		c.ZoneID = &zoneID.Int64
	}
	if fixedAssignee.Valid {
		c.FixedAssignee = &fixedAssignee.Int64
	}
	c.RotationSequence, err = decodeRotation(rotation)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const choreCols = `id, household_id, zone_id, title, description, frequency_days, start_date, strategy, fixed_assignee, rotation_sequence, rotation_interval_days, archived, created_at, updated_at`

func (s *ChoreStore) Create(c model.Chore) (*model.Chore, error) {
	var zoneID, fixedAssignee sql.NullInt64
	if c.ZoneID != nil {
		zoneID = sql.NullInt64{Int64: *c.ZoneID, Valid: true}
	}
	if c.FixedAssignee != nil {
		fixedAssignee = sql.NullInt64{Int64: *c.FixedAssignee, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO chores (household_id, zone_id, title, description, frequency_days, start_date, strategy, fixed_assignee, rotation_sequence, rotation_interval_days)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.HouseholdID, zoneID, c.Title, c.Description, c.FrequencyDays,
		c.StartDate.UTC(), c.Strategy, fixedAssignee,
		encodeRotation(c.RotationSequence), c.RotationIntervalDays,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// ListByHousehold returns the household's chores, active ones only unless
// includeArchived is set.
func (s *ChoreStore) ListByHousehold(householdID int64, includeArchived bool) ([]model.Chore, error) {
	query := `SELECT ` + choreCols + ` FROM chores WHERE household_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY title ASC`

	rows, err := s.db.Query(query, householdID)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(c model.Chore) (*model.Chore, error) {
	var zoneID, fixedAssignee sql.NullInt64
	if c.ZoneID != nil {
		zoneID = sql.NullInt64{Int64: *c.ZoneID, Valid: true}
	}
	if c.FixedAssignee != nil {
		fixedAssignee = sql.NullInt64{Int64: *c.FixedAssignee, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE chores SET zone_id = ?, title = ?, description = ?, frequency_days = ?, start_date = ?, strategy = ?, fixed_assignee = ?, rotation_sequence = ?, rotation_interval_days = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		zoneID, c.Title, c.Description, c.FrequencyDays, c.StartDate.UTC(),
		c.Strategy, fixedAssignee, encodeRotation(c.RotationSequence),
		c.RotationIntervalDays, c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(c.ID)
}

// Archive hides a chore from scheduling without touching its history.
func (s *ChoreStore) Archive(id int64) error {
	_, err := s.db.Exec(
		`UPDATE chores SET archived = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("archive chore: %w", err)
	}
	return nil
}

func (s *ChoreStore) Unarchive(id int64) error {
	_, err := s.db.Exec(
		`UPDATE chores SET archived = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("unarchive chore: %w", err)
	}
	return nil
}

func (s *ChoreStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

// --- Override methods ---

func scanOverride(scanner interface{ Scan(...any) error }) (*model.ChoreOverride, error) {
	var o model.ChoreOverride
	var newAssignee sql.NullInt64
	var newDate sql.NullTime

	err := scanner.Scan(
		&o.ID, &o.ChoreID, &o.OriginalDate, &o.Skipped,
		&newAssignee, &newDate, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if newAssignee.Valid {
		o.NewAssignee = &newAssignee.Int64
	}
	if newDate.Valid {
		o.NewDate = &newDate.Time
	}
	return &o, nil
}

const overrideCols = `id, chore_id, original_date, skipped, new_assignee, new_date, created_at, updated_at`

// UpsertOverride creates or replaces the override for (choreID, originalDate).
// The unique key makes a second write replace the first, never duplicate it.
func (s *ChoreStore) UpsertOverride(choreID int64, originalDate time.Time, skipped bool, newAssignee *int64, newDate *time.Time) (*model.ChoreOverride, error) {
	var assignee sql.NullInt64
	if newAssignee != nil {
		assignee = sql.NullInt64{Int64: *newAssignee, Valid: true}
	}
	var moved sql.NullTime
	if newDate != nil {
		moved = sql.NullTime{Time: newDate.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO chore_overrides (chore_id, original_date, skipped, new_assignee, new_date)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (chore_id, original_date) DO UPDATE SET
		   skipped = excluded.skipped,
		   new_assignee = excluded.new_assignee,
		   new_date = excluded.new_date,
		   updated_at = CURRENT_TIMESTAMP`,
		choreID, originalDate.UTC(), skipped, assignee, moved,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert override: %w", err)
	}
	return s.GetOverride(choreID, originalDate)
}

func (s *ChoreStore) GetOverride(choreID int64, originalDate time.Time) (*model.ChoreOverride, error) {
	row := s.db.QueryRow(
		`SELECT `+overrideCols+` FROM chore_overrides WHERE chore_id = ? AND original_date = ?`,
		choreID, originalDate.UTC(),
	)
	o, err := scanOverride(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get override: %w", err)
	}
	return o, nil
}

func (s *ChoreStore) ListOverridesByChore(choreID int64) ([]model.ChoreOverride, error) {
	rows, err := s.db.Query(
		`SELECT `+overrideCols+` FROM chore_overrides WHERE chore_id = ? ORDER BY original_date ASC`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	var overrides []model.ChoreOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		overrides = append(overrides, *o)
	}
	return overrides, rows.Err()
}

func (s *ChoreStore) DeleteOverride(choreID int64, originalDate time.Time) error {
	_, err := s.db.Exec(
		`DELETE FROM chore_overrides WHERE chore_id = ? AND original_date = ?`,
		choreID, originalDate.UTC(),
	)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}

// --- Completion methods ---

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.ChoreCompletion, error) {
	var c model.ChoreCompletion
	var completedBy sql.NullInt64

	err := scanner.Scan(&c.ID, &c.ChoreID, &completedBy, &c.CompletedAt, &c.Notes)
	if err != nil {
		return nil, err
	}

	if completedBy.Valid {
		c.CompletedBy = &completedBy.Int64
	}
	return &c, nil
}

const completionCols = `id, chore_id, completed_by, completed_at, notes`

// CreateCompletion appends a completion row. Completions are never mutated.
func (s *ChoreStore) CreateCompletion(choreID int64, completedBy *int64, completedAt time.Time, notes string) (*model.ChoreCompletion, error) {
	var by sql.NullInt64
	if completedBy != nil {
		by = sql.NullInt64{Int64: *completedBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO chore_completions (chore_id, completed_by, completed_at, notes) VALUES (?, ?, ?, ?)`,
		choreID, by, completedAt.UTC(), notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+completionCols+` FROM chore_completions WHERE id = ?`, id)
	return scanCompletion(row)
}

func (s *ChoreStore) ListCompletionsByChore(choreID int64) ([]model.ChoreCompletion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM chore_completions WHERE chore_id = ? ORDER BY completed_at DESC`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.ChoreCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

// ListCompletionsInRange returns a chore's completions with completed_at in
// [start, end), oldest first.
func (s *ChoreStore) ListCompletionsInRange(choreID int64, start, end time.Time) ([]model.ChoreCompletion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM chore_completions WHERE chore_id = ? AND completed_at >= ? AND completed_at < ? ORDER BY completed_at ASC`,
		choreID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list completions in range: %w", err)
	}
	defer rows.Close()

	var completions []model.ChoreCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}
