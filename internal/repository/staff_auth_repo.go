package repository

import (
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

type Staff struct {
	ID           int
	Email        string
	PasswordHash string
}

type StaffAuthRepository interface {
	GetByEmail(email string) (*Staff, error)
	CreateNewStaff(email, password string) error
}

type staffAuthRepository struct {
	db *sql.DB
}

func NewStaffAuthRepository(db *sql.DB) StaffAuthRepository {
	return &staffAuthRepository{db: db}
}

func (r *staffAuthRepository) GetByEmail(email string) (*Staff, error) {
	var staff Staff
	err := r.db.QueryRow("SELECT id, email, password_hash FROM staff WHERE email = $1", email).
		Scan(&staff.ID, &staff.Email, &staff.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

func (r *staffAuthRepository) CreateNewStaff(email, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	query := "INSERT INTO staff (email, password_hash) VALUES ($1, $2)"
	_, err = r.db.Exec(query, email, hashedPassword)
	if err != nil {
		return err
	}

	return nil
}
