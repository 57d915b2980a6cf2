//go:build integration

package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"faceatt/internal/store"
)

func setupTestContainer(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	url := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())
	db, err := store.NewDB(url, 5, 2)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("connect: %v", err)
	}
	if err := Migrate(ctx, db.Client); err != nil {
		db.Close()
		container.Terminate(ctx)
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		container.Terminate(ctx)
	}
	return NewRepository(db.Client), cleanup
}

func TestRepository(t *testing.T) {
	repo, cleanup := setupTestContainer(t)
	if repo == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	date := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	morning := date.Add(9 * time.Hour)

	var recordID string
	var sectionID int64

	t.Run("FindUserAbsent", func(t *testing.T) {
		u, err := repo.FindUser(ctx, "nobody")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if u != nil {
			t.Fatal("expected nil for unregistered name")
		}
	})

	t.Run("CreateAndFindUser", func(t *testing.T) {
		if _, err := repo.db.ExecContext(ctx,
			`INSERT INTO sections (name) VALUES ('Section A') ON CONFLICT DO NOTHING`); err != nil {
			t.Fatal(err)
		}
		if err := repo.db.QueryRowContext(ctx,
			`SELECT id FROM sections WHERE name = 'Section A'`).Scan(&sectionID); err != nil {
			t.Fatal(err)
		}

		if _, err := repo.CreateUser(ctx, "bob", sectionID); err != nil {
			t.Fatalf("create: %v", err)
		}
		u, err := repo.FindUser(ctx, "bob")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if u == nil || u.Section != "Section A" {
			t.Fatalf("expected bob in Section A, got %+v", u)
		}
	})

	t.Run("DuplicateUserRejected", func(t *testing.T) {
		if _, err := repo.CreateUser(ctx, "bob", sectionID); !errors.Is(err, ErrDuplicateName) {
			t.Fatalf("expected ErrDuplicateName, got %v", err)
		}
	})

	t.Run("CreateRecordAndFind", func(t *testing.T) {
		u, err := repo.FindUser(ctx, "bob")
		if err != nil || u == nil {
			t.Fatalf("find bob: %v", err)
		}
		if err := repo.CreateRecord(ctx, u.ID, date, SlotMorningIn, morning); err != nil {
			t.Fatalf("create record: %v", err)
		}
		rec, err := repo.FindRecord(ctx, u.ID, date)
		if err != nil {
			t.Fatalf("find record: %v", err)
		}
		if rec == nil || rec.MorningIn == nil {
			t.Fatalf("expected morning_in set, got %+v", rec)
		}
		if rec.MorningOut != nil || rec.AfternoonIn != nil || rec.AfternoonOut != nil {
			t.Fatal("only morning_in should be set")
		}
		recordID = rec.ID
	})

	t.Run("SetSlotFillsNullOnly", func(t *testing.T) {
		wrote, err := repo.SetSlot(ctx, recordID, SlotMorningOut, morning.Add(3*time.Hour))
		if err != nil {
			t.Fatalf("set slot: %v", err)
		}
		if !wrote {
			t.Fatal("first write into null slot must succeed")
		}

		// Same slot again: the IS NULL guard must refuse the overwrite.
		wrote, err = repo.SetSlot(ctx, recordID, SlotMorningOut, morning.Add(4*time.Hour))
		if err != nil {
			t.Fatalf("set slot: %v", err)
		}
		if wrote {
			t.Fatal("second write into a filled slot must be refused")
		}
	})

	t.Run("DeleteUserBlockedByAttendance", func(t *testing.T) {
		u, _ := repo.FindUser(ctx, "bob")
		if err := repo.DeleteUser(ctx, u.ID); !errors.Is(err, ErrUserHasAttendance) {
			t.Fatalf("expected ErrUserHasAttendance, got %v", err)
		}
	})

	t.Run("ListRows", func(t *testing.T) {
		rows, err := repo.ListRows(ctx, RowFilter{DateFrom: &date, DateTo: &date}, 10, 0)
		if err != nil {
			t.Fatalf("list rows: %v", err)
		}
		if len(rows) != 1 || rows[0].Name != "bob" {
			t.Fatalf("expected one row for bob, got %+v", rows)
		}
		n, err := repo.CountRows(ctx, RowFilter{})
		if err != nil {
			t.Fatalf("count rows: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 total row, got %d", n)
		}
	})
}
