package store

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSQLiteGetHitAndMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	s := NewSQLiteFromDB(db)

	mock.ExpectQuery("SELECT value FROM kv").WithArgs(KeyToken).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("tok-123"))

	got, ok, err := s.Get(KeyToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || got != "tok-123" {
		t.Fatalf("Get = (%q, %v), want (\"tok-123\", true)", got, ok)
	}

	mock.ExpectQuery("SELECT value FROM kv").WithArgs(KeyUser).
		WillReturnError(sql.ErrNoRows)

	_, ok, err = s.Get(KeyUser)
	if err != nil {
		t.Fatalf("Get miss: %v", err)
	}
	if ok {
		t.Fatal("expected miss for absent key")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSQLiteSetUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	s := NewSQLiteFromDB(db)

	mock.ExpectExec("INSERT INTO kv").WithArgs(KeyToken, "tok-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO kv").WithArgs(KeyToken, "tok-2").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.Set(KeyToken, "tok-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(KeyToken, "tok-2"); err != nil {
		t.Fatalf("Set again: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSQLiteDeleteAbsentKeyIsNoError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	s := NewSQLiteFromDB(db)

	mock.ExpectExec("DELETE FROM kv").WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Delete("missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
