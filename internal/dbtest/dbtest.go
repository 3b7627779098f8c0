// Package dbtest поднимает in-memory sqlite со схемой ядра для тестов.
package dbtest

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Minimal schema for the query/update logic (sqlite-friendly).
// Метки времени заполняет сама база, как now() в postgres.
var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		phone TEXT,
		category TEXT NOT NULL,
		role TEXT NOT NULL,
		active BOOLEAN NOT NULL,
		created_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now')),
		updated_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	);`,
	`CREATE TABLE resources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		booking_unit TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now')),
		updated_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	);`,
	`CREATE TABLE weekly_schedules (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		day_of_week INTEGER NOT NULL,
		open_time TIME NOT NULL,
		close_time TIME NOT NULL,
		created_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	);`,
	`CREATE TABLE schedule_exceptions (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		date DATE NOT NULL,
		is_closed BOOLEAN NOT NULL,
		open_time TIME,
		close_time TIME,
		created_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	);`,
	`CREATE TABLE blackouts (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		start_at DATETIME NOT NULL,
		end_at DATETIME NOT NULL,
		kind TEXT NOT NULL,
		reason TEXT,
		created_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	);`,
	`CREATE TABLE pricing_rules (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		price INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL,
		start_time TIME,
		end_time TIME,
		day_of_week INTEGER,
		user_category TEXT,
		created_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now')),
		updated_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	);`,
	`CREATE TABLE reservations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL,
		total_amount INTEGER NOT NULL,
		document_url TEXT,
		created_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now')),
		updated_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	);`,
	`CREATE TABLE reservation_items (
		id TEXT PRIMARY KEY,
		reservation_id TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		start_at DATETIME NOT NULL,
		end_at DATETIME NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		pricing_rule_id TEXT,
		pricing_rule_kind TEXT,
		status TEXT NOT NULL,
		created_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now')),
		updated_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	);`,
	`CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		reservation_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		amount INTEGER NOT NULL,
		provider TEXT,
		provider_payment_id TEXT UNIQUE,
		paid_at DATETIME,
		refunded_amount INTEGER,
		refund_reason TEXT,
		refunded_at DATETIME,
		created_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now')),
		updated_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	);`,
	`CREATE TABLE notification_logs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		user_id TEXT,
		reservation_id TEXT,
		title TEXT NOT NULL,
		message TEXT,
		error TEXT,
		details TEXT,
		created_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	);`,
}

// Open возвращает пустую БД со схемой. Одно соединение: in-memory база живёт
// внутри соединения, а транзакции заодно сериализуются.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
