// Package sql stores documents and keyword entries in a relational database
// through gorm. SQLite and PostgreSQL are supported.
package sql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
	pkgerrors "mindgraph/pkg/errors"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// documentRecord is one document row. The indexed columns mirror the payload
// so listings can filter without decoding.
type documentRecord struct {
	ID        string `gorm:"primaryKey;size:128"`
	OwnerID   string `gorm:"index;not null"`
	Kind      string `gorm:"size:16;not null"`
	Category  string `gorm:"index"`
	Title     string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
	Payload   string `gorm:"type:text;not null"`
}

func (documentRecord) TableName() string { return "documents" }

// keywordRecord is one keyword index entry of an owner
type keywordRecord struct {
	OwnerID string `gorm:"primaryKey;size:255"`
	Keyword string `gorm:"primaryKey;size:255"`
	Payload string `gorm:"type:text;not null"`
}

func (keywordRecord) TableName() string { return "keywords" }

// Open connects to the database and migrates the schema
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&documentRecord{}, &keywordRecord{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Repository implements ports.DocumentRepository and ports.KeywordRepository with gorm
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRepository creates a repository on a migrated database
func NewRepository(db *gorm.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger}
}

// Put inserts or replaces a document row
func (r *Repository) Put(ctx context.Context, doc *entities.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.NewStorageError("put document", err)
	}

	record := documentRecord{
		ID:        doc.ID.String(),
		OwnerID:   doc.Owner(),
		Kind:      string(doc.Kind),
		Category:  doc.Metadata.Category,
		Title:     doc.Title,
		CreatedAt: doc.Metadata.CreatedAt,
		UpdatedAt: doc.Metadata.UpdatedAt,
		Version:   doc.Metadata.Version,
		Payload:   string(payload),
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
	if err != nil {
		r.logger.Error("Failed to save document row", zap.String("documentID", record.ID), zap.Error(err))
		return pkgerrors.NewStorageError("put document", err)
	}
	return nil
}

// GetByID returns the document with the given id
func (r *Repository) GetByID(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error) {
	var record documentRecord
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NewNotFoundError("document")
	}
	if err != nil {
		return nil, pkgerrors.NewStorageError("get document", err)
	}
	return decodeDocument(record)
}

// ListByOwner returns the owner's documents
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Document, error) {
	records := make([]documentRecord, 0)
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&records).Error; err != nil {
		return nil, pkgerrors.NewStorageError("list documents", err)
	}

	docs := make([]*entities.Document, 0, len(records))
	for _, record := range records {
		doc, err := decodeDocument(record)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete removes a document row
func (r *Repository) Delete(ctx context.Context, id valueobjects.DocumentID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&documentRecord{}).Error; err != nil {
		return pkgerrors.NewStorageError("delete document", err)
	}
	return nil
}

// ListKeywords returns the owner's keyword entries
func (r *Repository) ListKeywords(ctx context.Context, ownerID string) ([]*entities.KeywordEntry, error) {
	records := make([]keywordRecord, 0)
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&records).Error; err != nil {
		return nil, pkgerrors.NewStorageError("list keywords", err)
	}

	entries := make([]*entities.KeywordEntry, 0, len(records))
	for _, record := range records {
		var entry entities.KeywordEntry
		if err := json.Unmarshal([]byte(record.Payload), &entry); err != nil {
			return nil, pkgerrors.NewStorageError("decode keyword", err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

// SaveKeywords applies upserts and removals in one transaction
func (r *Repository) SaveKeywords(ctx context.Context, ownerID string, upserts []*entities.KeywordEntry, removals []string) error {
	records := make([]keywordRecord, 0, len(upserts))
	for _, e := range upserts {
		payload, err := json.Marshal(e)
		if err != nil {
			return pkgerrors.NewStorageError("save keywords", err)
		}
		records = append(records, keywordRecord{OwnerID: ownerID, Keyword: e.Keyword, Payload: string(payload)})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(removals) > 0 {
			if err := tx.Where("owner_id = ? AND keyword IN ?", ownerID, removals).Delete(&keywordRecord{}).Error; err != nil {
				return err
			}
		}
		if len(records) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&records).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.NewStorageError("save keywords", err)
	}
	return nil
}

// Ping checks the database answers
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return pkgerrors.NewUnavailableError("database").WithCause(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return pkgerrors.NewUnavailableError("database").WithCause(err)
	}
	return nil
}

// Close releases the connection pool
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func decodeDocument(record documentRecord) (*entities.Document, error) {
	var doc entities.Document
	if err := json.Unmarshal([]byte(record.Payload), &doc); err != nil {
		return nil, pkgerrors.NewStorageError("decode document", err)
	}
	return &doc, nil
}
