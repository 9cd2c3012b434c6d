// Package store persists form definitions and their responses in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mbolis/parish-forms/log"
	"github.com/mbolis/parish-forms/model"
)

type SQLite struct {
	db *sql.DB
}

func New(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func fail(op string, err error) error {
	return &model.PersistenceError{Op: op, Err: errors.WithStack(err)}
}

// CreateForm inserts the definition and all its fields in one transaction,
// so a failed create leaves nothing behind.
func (s *SQLite) CreateForm(ctx context.Context, def *model.FormDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail("db.begin_tx", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO form (id, title, description, cover_image, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		def.ID,
		def.Title,
		def.Description,
		nullString(def.CoverImage),
		def.Active,
		def.CreatedAt.UTC(),
	)
	if err != nil {
		return fail("db.insert_form", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO form_field (form_id, id, position, type, label, required, options)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fail("db.insert_form.fields.prepare", err)
	}
	defer stmt.Close()

	for i, f := range def.Fields {
		var options string
		if len(f.Options) > 0 {
			optionsJson, err := json.Marshal(f.Options)
			if err != nil {
				return fail("db.insert_form.fields.encode_options", err)
			}
			options = string(optionsJson)
		}

		_, err = stmt.ExecContext(ctx, def.ID, f.ID, i, string(f.Type), f.Label, f.Required, options)
		if err != nil {
			return fail("db.insert_form.fields.insert", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fail("db.insert_form.commit", err)
	}
	return nil
}

func (s *SQLite) GetForm(ctx context.Context, id string) (*model.FormDefinition, error) {
	def := &model.FormDefinition{}
	var cover sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, cover_image, active, created_at
		FROM form
		WHERE id = ?`,
		id,
	).Scan(&def.ID, &def.Title, &def.Description, &cover, &def.Active, &def.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fail("db.get_form", err)
	}
	if cover.Valid {
		def.CoverImage = &cover.String
	}

	fields, err := s.queryFields(ctx, `
		SELECT form_id, id, type, label, required, options
		FROM form_field
		WHERE form_id = ?
		ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, err
	}
	def.Fields = fields[id]
	return def, nil
}

// FormStatus reads only the active flag, for the pre-submit guard.
func (s *SQLite) FormStatus(ctx context.Context, id string) (active bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT active FROM form WHERE id = ?`, id).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, model.ErrNotFound
	}
	if err != nil {
		return false, fail("db.get_form_status", err)
	}
	return active, nil
}

// ListForms returns every form, newest first, each with its response count.
// Counts are fetched one query per form; a failed count is logged and
// reported as zero instead of failing the list.
func (s *SQLite) ListForms(ctx context.Context) ([]model.FormSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, cover_image, active, created_at
		FROM form
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fail("db.list_forms", err)
	}
	defer rows.Close()

	forms := []model.FormSummary{}
	for rows.Next() {
		f := model.FormSummary{}
		var cover sql.NullString
		err = rows.Scan(&f.ID, &f.Title, &f.Description, &cover, &f.Active, &f.CreatedAt)
		if err != nil {
			return nil, fail("db.list_forms.scan", err)
		}
		if cover.Valid {
			f.CoverImage = &cover.String
		}
		forms = append(forms, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fail("db.list_forms.next", err)
	}
	rows.Close()

	fields, err := s.queryFields(ctx, `
		SELECT form_id, id, type, label, required, options
		FROM form_field
		ORDER BY form_id, position`)
	if err != nil {
		return nil, err
	}

	for i := range forms {
		forms[i].Fields = fields[forms[i].ID]

		n, err := s.CountResponses(ctx, forms[i].ID)
		if err != nil {
			log.WithFields(log.Fields{"form": forms[i].ID, "err": err}).Warn("db.list_forms.count_responses")
			n = 0
		}
		forms[i].ResponseCount = n
	}
	return forms, nil
}

func (s *SQLite) queryFields(ctx context.Context, query string, args ...any) (map[string][]model.FieldDefinition, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fail("db.get_fields", err)
	}
	defer rows.Close()

	fields := make(map[string][]model.FieldDefinition)
	for rows.Next() {
		var formID, typ, opts string
		f := model.FieldDefinition{}
		err = rows.Scan(&formID, &f.ID, &typ, &f.Label, &f.Required, &opts)
		if err != nil {
			return nil, fail("db.get_fields.scan", err)
		}
		f.Type = model.FieldType(typ)

		if opts != "" {
			err = json.Unmarshal([]byte(opts), &f.Options)
			if err != nil {
				return nil, fail("db.get_fields.parse_options", err)
			}
		}
		fields[formID] = append(fields[formID], f)
	}
	if err = rows.Err(); err != nil {
		return nil, fail("db.get_fields.next", err)
	}
	return fields, nil
}

// SetFormActive overwrites the flag; concurrent toggles are last-write-wins.
func (s *SQLite) SetFormActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE form SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fail("db.set_form_active", err)
	}
	return affected(res, "db.set_form_active.verify")
}

// DeleteForm removes the form; fields and responses go with it.
func (s *SQLite) DeleteForm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, id)
	if err != nil {
		return fail("db.delete_form", err)
	}
	return affected(res, "db.delete_form.verify")
}

func affected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fail(op, err)
	}
	if n < 1 {
		return model.ErrNotFound
	}
	return nil
}

func (s *SQLite) CreateResponse(ctx context.Context, resp *model.FormResponse) error {
	data, err := json.Marshal(resp.Data)
	if err != nil {
		return fail("db.insert_response.encode_data", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO form_response (id, form_id, data, created_at)
		VALUES (?, ?, ?, ?)`,
		resp.ID,
		resp.FormID,
		string(data),
		resp.CreatedAt.UTC(),
	)
	if err != nil {
		return fail("db.insert_response", err)
	}
	return nil
}

// ListResponses returns the responses of a form oldest first. Responses
// sharing a timestamp keep their insertion order.
func (s *SQLite) ListResponses(ctx context.Context, formID string) ([]model.FormResponse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, form_id, data, created_at
		FROM form_response
		WHERE form_id = ?
		ORDER BY created_at ASC, seq ASC`,
		formID,
	)
	if err != nil {
		return nil, fail("db.list_responses", err)
	}
	defer rows.Close()

	responses := []model.FormResponse{}
	for rows.Next() {
		r := model.FormResponse{}
		var data string
		err = rows.Scan(&r.ID, &r.FormID, &data, &r.CreatedAt)
		if err != nil {
			return nil, fail("db.list_responses.scan", err)
		}
		err = json.Unmarshal([]byte(data), &r.Data)
		if err != nil {
			return nil, fail("db.list_responses.parse_data", err)
		}
		responses = append(responses, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fail("db.list_responses.next", err)
	}
	return responses, nil
}

func (s *SQLite) CountResponses(ctx context.Context, formID string) (n int, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM form_response WHERE form_id = ?`, formID).Scan(&n)
	if err != nil {
		return 0, fail("db.count_responses", err)
	}
	return n, nil
}

// PutUser creates an admin user, or replaces the password of an existing one.
func (s *SQLite) PutUser(ctx context.Context, username string, passwordHash []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user (username, password_hash) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`,
		username,
		passwordHash,
	)
	if err != nil {
		return fail("db.put_user", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
