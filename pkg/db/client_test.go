package db

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type walletRow struct {
	ID      int
	UserID  string
	Balance string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&walletRow{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	if err := conn.Exec("DELETE FROM wallet_rows").Error; err != nil {
		t.Fatalf("failed to reset table: %v", err)
	}
	return conn
}

func TestWithTx_CommitsOnNil(t *testing.T) {
	conn := newTestDB(t)
	client := &Client{conn: conn}

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&walletRow{UserID: "u1", Balance: "100"}).Error
	})
	if err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := conn.Model(&walletRow{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	conn := newTestDB(t)
	client := &Client{conn: conn}

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&walletRow{UserID: "u1", Balance: "100"}).Error; err != nil {
			return err
		}
		if err := tx.Create(&walletRow{UserID: "u2", Balance: "50"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return the callback error")
	}

	var count int64
	if err := conn.Model(&walletRow{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to leave no records, got %d", count)
	}
}

func TestPing(t *testing.T) {
	conn := newTestDB(t)
	client := &Client{conn: conn}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}
