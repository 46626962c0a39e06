package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	_, err = conn.Exec(`CREATE TABLE test_table (id INTEGER PRIMARY KEY, value TEXT)`)
	if err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}

	return conn
}

func TestRunInTransaction_NewTransaction(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	ctx := context.Background()

	err := RunInTransaction(ctx, conn, func(txCtx context.Context) error {
		if _, ok := GetTx(txCtx); !ok {
			t.Error("Expected transaction in context")
		}

		executor := GetExecutor(txCtx, conn)
		_, err := executor.ExecContext(txCtx, "INSERT INTO test_table (value) VALUES (?)", "test")
		return err
	})

	if err != nil {
		t.Fatalf("RunInTransaction failed: %v", err)
	}

	var count int
	if err := conn.QueryRow("SELECT COUNT(*) FROM test_table").Scan(&count); err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row, got %d", count)
	}
}

func TestRunInTransaction_Rollback(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	boom := errors.New("boom")
	err := RunInTransaction(context.Background(), conn, func(txCtx context.Context) error {
		executor := GetExecutor(txCtx, conn)
		if _, err := executor.ExecContext(txCtx, "INSERT INTO test_table (value) VALUES (?)", "doomed"); err != nil {
			return err
		}
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("RunInTransaction error = %v, want %v", err, boom)
	}

	var count int
	if err := conn.QueryRow("SELECT COUNT(*) FROM test_table").Scan(&count); err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected rollback to leave 0 rows, got %d", count)
	}
}

func TestRunInTransaction_ReusesOuterTransaction(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	err := RunInTransaction(context.Background(), conn, func(outerCtx context.Context) error {
		outer, _ := GetTx(outerCtx)
		return RunInTransaction(outerCtx, conn, func(innerCtx context.Context) error {
			inner, ok := GetTx(innerCtx)
			if !ok {
				t.Error("Expected transaction in nested context")
			}
			if inner != outer {
				t.Error("Nested call opened a second transaction")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("RunInTransaction failed: %v", err)
	}
}

func TestGetExecutor_WithoutTransaction(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	executor := GetExecutor(context.Background(), conn)
	if executor != Executor(conn) {
		t.Error("Expected base connection when no transaction is active")
	}
}
