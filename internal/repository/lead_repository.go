package repository

import (
	"database/sql"

	"github.com/o4villegas/lead-fuego-sub001/internal/model"
)

// LeadRepositoryInterface defines methods used by the engine
type LeadRepositoryInterface interface {
	GetByID(id int) (*model.Lead, error)
}

// LeadRepository is the concrete implementation
type LeadRepository struct {
	DB *sql.DB
}

// GetByID fetches a lead by ID
func (r *LeadRepository) GetByID(id int) (*model.Lead, error) {
	query := `
        SELECT id, phone, email, first_name, last_name, location, source, created_at
        FROM leads
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var l model.Lead
	if err := row.Scan(&l.ID, &l.Phone, &l.Email, &l.FirstName, &l.LastName, &l.Location, &l.Source, &l.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &l, nil
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
