package associations

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/eventgo/eventgo/internal/apperror"
	"github.com/eventgo/eventgo/internal/database"
	"github.com/eventgo/eventgo/internal/testutil"
)

// --- Fixtures ---

func seedEvent(t *testing.T, conn *sqlx.DB, name string) int {
	t.Helper()
	return testutil.MustExec(t, conn,
		`INSERT INTO events (name, date, duration, description, place) VALUES (?, ?, ?, ?, ?)`,
		name, "2025-06-01", "2h", "", "Hall A")
}

func seedTag(t *testing.T, conn *sqlx.DB, name string) int {
	t.Helper()
	return testutil.MustExec(t, conn, `INSERT INTO tags (name, color) VALUES (?, ?)`, name, "#ff0000")
}

func seedParticipant(t *testing.T, conn *sqlx.DB, name string) int {
	t.Helper()
	return testutil.MustExec(t, conn, `INSERT INTO participants (name, age) VALUES (?, ?)`, name, 30)
}

func assertAppError(t *testing.T, err error, expectedType string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", expectedType)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Type != expectedType {
		t.Errorf("expected type %s, got %s (message: %s)", expectedType, appErr.Type, appErr.Message)
	}
}

func relatedIDs(t *testing.T, m Manager, eventID int, kind Kind) []int {
	t.Helper()
	ids, err := m.RelatedIDs(context.Background(), eventID, kind)
	if err != nil {
		t.Fatalf("RelatedIDs: %v", err)
	}
	return ids
}

// --- Reconcile ---

func TestReconcile_ReplacesSet(t *testing.T) {
	conn := testutil.NewDB(t)
	m := NewManager(conn)
	ctx := context.Background()

	ev := seedEvent(t, conn, "Launch")
	t1, t2, t3 := seedTag(t, conn, "a"), seedTag(t, conn, "b"), seedTag(t, conn, "c")

	if err := m.Reconcile(ctx, ev, KindTags, []int{t1, t2}); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if got := relatedIDs(t, m, ev, KindTags); !slices.Equal(got, []int{t1, t2}) {
		t.Errorf("expected %v, got %v", []int{t1, t2}, got)
	}

	if err := m.Reconcile(ctx, ev, KindTags, []int{t3, t2}); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if got := relatedIDs(t, m, ev, KindTags); !slices.Equal(got, []int{t2, t3}) {
		t.Errorf("expected %v, got %v", []int{t2, t3}, got)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	conn := testutil.NewDB(t)
	m := NewManager(conn)
	ctx := context.Background()

	ev := seedEvent(t, conn, "Launch")
	p1, p2 := seedParticipant(t, conn, "Ann"), seedParticipant(t, conn, "Bob")

	for i := 0; i < 2; i++ {
		if err := m.Reconcile(ctx, ev, KindParticipants, []int{p1, p2}); err != nil {
			t.Fatalf("reconcile #%d: %v", i+1, err)
		}
	}
	if n := testutil.Count(t, conn, `SELECT COUNT(*) FROM event_participants WHERE event_id = ?`, ev); n != 2 {
		t.Errorf("expected 2 join rows, got %d", n)
	}
}

func TestReconcile_DuplicatesCollapse(t *testing.T) {
	conn := testutil.NewDB(t)
	m := NewManager(conn)

	ev := seedEvent(t, conn, "Launch")
	tag := seedTag(t, conn, "a")

	if err := m.Reconcile(context.Background(), ev, KindTags, []int{tag, tag, tag}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := relatedIDs(t, m, ev, KindTags); !slices.Equal(got, []int{tag}) {
		t.Errorf("expected single link, got %v", got)
	}
}

func TestReconcile_EmptyClears(t *testing.T) {
	conn := testutil.NewDB(t)
	m := NewManager(conn)
	ctx := context.Background()

	ev := seedEvent(t, conn, "Launch")
	tag := seedTag(t, conn, "a")
	if err := m.Reconcile(ctx, ev, KindTags, []int{tag}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if err := m.Reconcile(ctx, ev, KindTags, nil); err != nil {
		t.Fatalf("clearing reconcile: %v", err)
	}
	if got := relatedIDs(t, m, ev, KindTags); len(got) != 0 {
		t.Errorf("expected no links, got %v", got)
	}
}

func TestReconcile_LeavesOtherEventsAndKinds(t *testing.T) {
	conn := testutil.NewDB(t)
	m := NewManager(conn)
	ctx := context.Background()

	ev1, ev2 := seedEvent(t, conn, "One"), seedEvent(t, conn, "Two")
	tag := seedTag(t, conn, "a")
	p := seedParticipant(t, conn, "Ann")

	if err := m.Reconcile(ctx, ev1, KindTags, []int{tag}); err != nil {
		t.Fatal(err)
	}
	if err := m.Reconcile(ctx, ev1, KindParticipants, []int{p}); err != nil {
		t.Fatal(err)
	}
	if err := m.Reconcile(ctx, ev2, KindTags, []int{tag}); err != nil {
		t.Fatal(err)
	}

	if err := m.Reconcile(ctx, ev1, KindTags, []int{}); err != nil {
		t.Fatal(err)
	}

	if got := relatedIDs(t, m, ev2, KindTags); !slices.Equal(got, []int{tag}) {
		t.Errorf("other event's tags changed: %v", got)
	}
	if got := relatedIDs(t, m, ev1, KindParticipants); !slices.Equal(got, []int{p}) {
		t.Errorf("participants changed by tag reconcile: %v", got)
	}
}

func TestReconcile_UnknownEvent(t *testing.T) {
	conn := testutil.NewDB(t)
	m := NewManager(conn)

	tag := seedTag(t, conn, "a")
	err := m.Reconcile(context.Background(), 999, KindTags, []int{tag})
	assertAppError(t, err, apperror.TypeNotFound)

	if n := testutil.Count(t, conn, `SELECT COUNT(*) FROM event_tags`); n != 0 {
		t.Errorf("expected no join rows, got %d", n)
	}
}

func TestReconcile_UnknownRelatedWritesNothing(t *testing.T) {
	conn := testutil.NewDB(t)
	m := NewManager(conn)
	ctx := context.Background()

	ev := seedEvent(t, conn, "Launch")
	tag := seedTag(t, conn, "a")
	if err := m.Reconcile(ctx, ev, KindTags, []int{tag}); err != nil {
		t.Fatal(err)
	}

	err := m.Reconcile(ctx, ev, KindTags, []int{tag, 404, 405})
	assertAppError(t, err, apperror.TypeInvalidReference)
	if !strings.Contains(err.Error(), "404, 405") {
		t.Errorf("expected missing ids in message, got %q", err.Error())
	}

	if got := relatedIDs(t, m, ev, KindTags); !slices.Equal(got, []int{tag}) {
		t.Errorf("existing links must survive a rejected reconcile, got %v", got)
	}
}

func TestReconcile_UnknownKind(t *testing.T) {
	conn := testutil.NewDB(t)
	m := NewManager(conn)

	ev := seedEvent(t, conn, "Launch")
	if err := m.Reconcile(context.Background(), ev, Kind("venues"), nil); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

// --- Cascades ---

func TestCascadeDeleteForEvent(t *testing.T) {
	conn := testutil.NewDB(t)
	m := NewManager(conn)
	ctx := context.Background()

	ev1, ev2 := seedEvent(t, conn, "One"), seedEvent(t, conn, "Two")
	tag := seedTag(t, conn, "a")
	p := seedParticipant(t, conn, "Ann")
	for _, ev := range []int{ev1, ev2} {
		if err := m.Reconcile(ctx, ev, KindTags, []int{tag}); err != nil {
			t.Fatal(err)
		}
		if err := m.Reconcile(ctx, ev, KindParticipants, []int{p}); err != nil {
			t.Fatal(err)
		}
	}

	if err := m.CascadeDeleteForEvent(ctx, ev1); err != nil {
		t.Fatalf("cascade: %v", err)
	}

	if n := testutil.Count(t, conn, `SELECT COUNT(*) FROM event_tags WHERE event_id = ?`, ev1); n != 0 {
		t.Errorf("expected event_tags cleared, got %d", n)
	}
	if n := testutil.Count(t, conn, `SELECT COUNT(*) FROM event_participants WHERE event_id = ?`, ev1); n != 0 {
		t.Errorf("expected event_participants cleared, got %d", n)
	}
	if n := testutil.Count(t, conn, `SELECT COUNT(*) FROM event_tags WHERE event_id = ?`, ev2); n != 1 {
		t.Errorf("expected other event untouched, got %d", n)
	}

	// No links left: still succeeds.
	if err := m.CascadeDeleteForEvent(ctx, ev1); err != nil {
		t.Errorf("second cascade: %v", err)
	}
}

func TestCascadeDeleteForRelated(t *testing.T) {
	conn := testutil.NewDB(t)
	m := NewManager(conn)
	ctx := context.Background()

	ev := seedEvent(t, conn, "Launch")
	t1, t2 := seedTag(t, conn, "a"), seedTag(t, conn, "b")
	if err := m.Reconcile(ctx, ev, KindTags, []int{t1, t2}); err != nil {
		t.Fatal(err)
	}

	if err := m.CascadeDeleteForRelated(ctx, KindTags, t1); err != nil {
		t.Fatalf("cascade: %v", err)
	}

	if got := relatedIDs(t, m, ev, KindTags); !slices.Equal(got, []int{t2}) {
		t.Errorf("expected only %d left, got %v", t2, got)
	}
	if n := testutil.Count(t, conn, `SELECT COUNT(*) FROM events WHERE id = ?`, ev); n != 1 {
		t.Error("event must survive related-side cascade")
	}
}

// --- EventsFor ---

func TestEventsFor(t *testing.T) {
	conn := testutil.NewDB(t)
	m := NewManager(conn)
	ctx := context.Background()

	ev1, ev2 := seedEvent(t, conn, "One"), seedEvent(t, conn, "Two")
	p1, p2, p3 := seedParticipant(t, conn, "Ann"), seedParticipant(t, conn, "Bob"), seedParticipant(t, conn, "Cy")
	if err := m.Reconcile(ctx, ev1, KindParticipants, []int{p1, p2}); err != nil {
		t.Fatal(err)
	}
	if err := m.Reconcile(ctx, ev2, KindParticipants, []int{p1}); err != nil {
		t.Fatal(err)
	}

	got, err := m.EventsFor(ctx, KindParticipants, []int{p1, p2, p3})
	if err != nil {
		t.Fatalf("EventsFor: %v", err)
	}
	if len(got[p1]) != 2 || got[p1][0].ID != ev1 || got[p1][1].ID != ev2 {
		t.Errorf("unexpected events for p1: %+v", got[p1])
	}
	if len(got[p2]) != 1 || got[p2][0].Name != "One" {
		t.Errorf("unexpected events for p2: %+v", got[p2])
	}
	if got[p2][0].Date.String() != "2025-06-01" {
		t.Errorf("expected date 2025-06-01, got %s", got[p2][0].Date)
	}
	if _, ok := got[p3]; ok {
		t.Error("expected no entry for unlinked participant")
	}

	empty, err := m.EventsFor(ctx, KindParticipants, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty map, got %v (err %v)", empty, err)
	}
}

// --- Transactions ---

func TestWithTx_RollbackDiscardsReconcile(t *testing.T) {
	conn := testutil.NewDB(t)
	m := NewManager(conn)
	ctx := context.Background()

	ev := seedEvent(t, conn, "Launch")
	tag := seedTag(t, conn, "a")

	sentinel := errors.New("abort")
	err := database.InTx(ctx, conn, func(tx *sqlx.Tx) error {
		if err := m.WithTx(tx).Reconcile(ctx, ev, KindTags, []int{tag}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	if got := relatedIDs(t, m, ev, KindTags); len(got) != 0 {
		t.Errorf("expected rollback to discard links, got %v", got)
	}
}

func TestDistinct(t *testing.T) {
	got := Distinct([]int{3, 1, 3, 2, 1})
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}
	if got := Distinct(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
