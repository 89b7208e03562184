package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/astroconsult/consult-server-go/internal/model"
)

type ProfileRepository interface {
	FindByMobile(ctx context.Context, mobile string) (*model.Profile, error)
	Upsert(ctx context.Context, profile model.Profile) error
	UpdateContext(ctx context.Context, mobile, contextText string) error
	WithTx(tx *sqlx.Tx) ProfileRepository
}

type profileRepo struct {
	db sqlxDB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) WithTx(tx *sqlx.Tx) ProfileRepository {
	return &profileRepo{db: tx}
}

func (r *profileRepo) FindByMobile(ctx context.Context, mobile string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `
		SELECT * FROM user_profiles WHERE mobile = $1
	`, mobile)
	return HandleNotFound(&profile, err)
}

func (r *profileRepo) Upsert(ctx context.Context, p model.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profiles (
			mobile, gender, date_of_birth, time_of_birth, place_of_birth,
			latitude, longitude, country, state, chart_style, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (mobile) DO UPDATE SET
			gender = EXCLUDED.gender,
			date_of_birth = EXCLUDED.date_of_birth,
			time_of_birth = EXCLUDED.time_of_birth,
			place_of_birth = EXCLUDED.place_of_birth,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			country = EXCLUDED.country,
			state = EXCLUDED.state,
			chart_style = EXCLUDED.chart_style,
			context = '',
			updated_at = EXCLUDED.updated_at
	`, p.Mobile, p.Gender, p.DateOfBirth, p.TimeOfBirth, p.PlaceOfBirth,
		p.Latitude, p.Longitude, p.Country, p.State, p.ChartStyle, time.Now())
	return err
}

func (r *profileRepo) UpdateContext(ctx context.Context, mobile, contextText string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_profiles SET context = $2, updated_at = $3 WHERE mobile = $1
	`, mobile, contextText, time.Now())
	return err
}
