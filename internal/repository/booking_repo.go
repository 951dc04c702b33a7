package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"therapyspace/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// BookingRepository keeps one row per booking. Each write runs in its own
// transaction, so concurrent writers touch single records instead of
// replacing the whole collection.
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	Seq               int64                  `gorm:"column:seq;primaryKey;autoIncrement"`
	ID                string                 `gorm:"column:id;uniqueIndex;size:128"`
	PractitionerID    string                 `gorm:"column:practitioner_id;index"`
	PractitionerName  string                 `gorm:"column:practitioner_name"`
	Date              string                 `gorm:"column:date;size:10"`
	Time              string                 `gorm:"column:time;size:8"`
	ClientName        string                 `gorm:"column:client_name"`
	ClientEmail       string                 `gorm:"column:client_email;index"`
	ClientPhone       string                 `gorm:"column:client_phone"`
	ServiceType       string                 `gorm:"column:service_type"`
	Notes             *string                `gorm:"column:notes;type:text"`
	Status            string                 `gorm:"column:status;index"`
	CreatedAt         time.Time              `gorm:"column:created_at"`
	RecurrenceRule    *domain.RecurrenceRule `gorm:"column:recurrence_rule;type:text;serializer:json"`
	RecurrenceGroupID *string                `gorm:"column:recurrence_group_id;index"`
	IsRecurring       bool                   `gorm:"column:is_recurring"`
}

func (bookingModel) TableName() string { return "bookings" }

// Migrate creates or updates the bookings table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&bookingModel{})
}

func toDomainBooking(m bookingModel) *domain.Booking {
	b := &domain.Booking{
		ID:               m.ID,
		PractitionerID:   m.PractitionerID,
		PractitionerName: m.PractitionerName,
		Date:             m.Date,
		Time:             m.Time,
		ClientName:       m.ClientName,
		ClientEmail:      m.ClientEmail,
		ClientPhone:      m.ClientPhone,
		ServiceType:      m.ServiceType,
		Status:           domain.BookingStatus(m.Status),
		CreatedAt:        m.CreatedAt,
		RecurrenceRule:   m.RecurrenceRule,
		IsRecurring:      m.IsRecurring,
	}
	if m.Notes != nil {
		b.Notes = *m.Notes
	}
	if m.RecurrenceGroupID != nil {
		b.RecurrenceGroupID = *m.RecurrenceGroupID
	}
	b.Normalize()
	return b
}

func toBookingModel(b *domain.Booking) bookingModel {
	m := bookingModel{
		ID:               b.ID,
		PractitionerID:   b.PractitionerID,
		PractitionerName: b.PractitionerName,
		Date:             b.Date,
		Time:             b.Time,
		ClientName:       b.ClientName,
		ClientEmail:      b.ClientEmail,
		ClientPhone:      b.ClientPhone,
		ServiceType:      b.ServiceType,
		Status:           string(b.Status),
		CreatedAt:        b.CreatedAt,
		RecurrenceRule:   b.RecurrenceRule,
		IsRecurring:      b.IsRecurring,
	}
	if b.Notes != "" {
		v := b.Notes
		m.Notes = &v
	}
	if b.RecurrenceGroupID != "" {
		v := b.RecurrenceGroupID
		m.RecurrenceGroupID = &v
	}
	return m
}

func (r *BookingRepository) Get(ctx context.Context, id string) (*domain.Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDomainBooking(m), nil
}

// List returns every booking in insertion order.
func (r *BookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	var rows []bookingModel
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// Put inserts b or replaces the stored record with the same id. Replaced
// records keep their original position.
func (r *BookingRepository) Put(ctx context.Context, b *domain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return putTx(tx, b)
	})
}

// PutMany writes all bookings atomically.
func (r *BookingRepository) PutMany(ctx context.Context, bookings []domain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range bookings {
			if err := putTx(tx, &bookings[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&bookingModel{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func putTx(tx *gorm.DB, b *domain.Booking) error {
	m := toBookingModel(b)

	var existing bookingModel
	err := tx.Select("seq").Where("id = ?", m.ID).Take(&existing).Error
	switch {
	case err == nil:
		m.Seq = existing.Seq
		return tx.Save(&m).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		// seq comes from the database so concurrent inserts never share one
		if err := tx.Create(&m).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateID
			}
			return err
		}
		return nil
	default:
		return err
	}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
