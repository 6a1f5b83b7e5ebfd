package history

import (
	"context"
	"fmt"
	"time"

	domain "github.com/example/nextalk-server/domain/chat"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// messageRecord is the gorm row for a chat message. Seq breaks timestamp ties.
type messageRecord struct {
	Seq      uint64 `gorm:"primaryKey;autoIncrement"`
	ID       string `gorm:"uniqueIndex;not null;type:text"`
	Sender   string `gorm:"not null;type:text"`
	Content  string `gorm:"not null;type:text"`
	Room     string `gorm:"index:idx_messages_room_ts,priority:1;not null;type:text"`
	UnixNano int64  `gorm:"index:idx_messages_room_ts,priority:2;not null"`
}

// TableName returns the table name for stored messages.
func (messageRecord) TableName() string {
	return "messages"
}

func (r messageRecord) toDomain() domain.Message {
	return domain.Message{
		ID:        r.ID,
		Sender:    r.Sender,
		Content:   r.Content,
		Room:      r.Room,
		Timestamp: time.Unix(0, r.UnixNano).UTC(),
	}
}

// SQLiteStore stores messages through gorm.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Single writer; also keeps ":memory:" on one connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return NewSQLiteStore(db)
}

// NewSQLiteStore wraps an existing gorm handle and migrates the schema.
func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&messageRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append inserts msg.
func (s *SQLiteStore) Append(ctx context.Context, msg domain.Message) error {
	rec := messageRecord{
		ID:       msg.ID,
		Sender:   msg.Sender,
		Content:  msg.Content,
		Room:     msg.Room,
		UnixNano: msg.Timestamp.UnixNano(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// RecentByRoom returns the newest limit messages of room, oldest first.
func (s *SQLiteStore) RecentByRoom(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	var recs []messageRecord
	err := s.db.WithContext(ctx).
		Where("room = ?", room).
		Order("unix_nano DESC").
		Order("seq DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	out := make([]domain.Message, len(recs))
	for i, rec := range recs {
		out[len(recs)-1-i] = rec.toDomain()
	}
	return out, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
