package friendrequests

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophfriends/internal/common"
	"github.com/dmitrijs2005/gophfriends/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock, db
}

var (
	cols = []string{"id", "sender_id", "sender_username", "recipient_id", "recipient_username", "status", "payload", "updated_at"}
	ts   = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
)

func row(id, sender, recipient, status string) []driver.Value {
	return []driver.Value{id, sender, sender + "-name", recipient, recipient + "-name", status, []byte(`{"type":"friend_request"}`), ts}
}

func TestGetForPair_UsesOrderedKeyAndLocks(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := `(?s)^SELECT\s+id,.*FROM\s+friend_requests\s+WHERE\s+pair_low\s*=\s*\$1\s+AND\s+pair_high\s*=\s*\$2\s+FOR\s+UPDATE$`
	mock.ExpectQuery(q).
		WithArgs("u1", "u2").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(row("r1", "u2", "u1", "pending")...))

	got, err := repo.GetForPair(context.Background(), "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "u2", got.SenderID)
	assert.Equal(t, "u1-name", got.RecipientName)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.JSONEq(t, `{"type":"friend_request"}`, string(got.Payload))
	assert.True(t, got.UpdatedAt.Equal(ts))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForPair_NotFound(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+friend_requests`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetForPair(context.Background(), "a", "b")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetDirected(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := `(?s)WHERE\s+sender_id\s*=\s*\$1\s+AND\s+recipient_id\s*=\s*\$2\s+FOR\s+UPDATE$`
	mock.ExpectQuery(q).
		WithArgs("u1", "u2").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(row("r1", "u1", "u2", "rejected")...))

	got, err := repo.GetDirected(context.Background(), "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
}

func TestGetDirected_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+friend_requests`).WillReturnError(errors.New("db down"))

	_, err := repo.GetDirected(context.Background(), "u1", "u2")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpsert_KeepsStoredID(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := `(?s)^\s*INSERT\s+INTO\s+friend_requests.*ON\s+CONFLICT\s+\(pair_low,\s*pair_high\)\s+DO\s+UPDATE\s+SET.*RETURNING\s+id\s*$`
	mock.ExpectQuery(q).
		WithArgs("new-id", "u2", "bob", "u1", "alice", "u1", "u2", "pending", []byte(`{}`), ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("old-id"))

	req := &models.FriendRequest{
		ID: "new-id", SenderID: "u2", SenderName: "bob", RecipientID: "u1", RecipientName: "alice",
		Status: models.StatusPending, Payload: []byte(`{}`), UpdatedAt: ts,
	}
	require.NoError(t, repo.Upsert(context.Background(), req))
	assert.Equal(t, "old-id", req.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_ConcurrentPendingRowIsNotOverwritten(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := `(?s)ON\s+CONFLICT\s+\(pair_low,\s*pair_high\)\s+DO\s+UPDATE\s+SET.*WHERE\s+friend_requests\.status\s*=\s*'accepted'\s+RETURNING\s+id\s*$`
	mock.ExpectQuery(q).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := &models.FriendRequest{
		ID: "new-id", SenderID: "u2", SenderName: "bob", RecipientID: "u1", RecipientName: "alice",
		Status: models.StatusPending, Payload: []byte(`{}`), UpdatedAt: ts,
	}
	err := repo.Upsert(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrRequestPending)
	assert.Equal(t, "new-id", req.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+friend_requests`).WillReturnError(errors.New("boom"))

	err := repo.Upsert(context.Background(), &models.FriendRequest{ID: "x", SenderID: "a", RecipientID: "b"})
	assert.ErrorContains(t, err, "db error: boom")
}

func TestUpdateStatus(t *testing.T) {
	q := `(?s)^UPDATE\s+friend_requests\s+SET\s+status\s*=\s*\$2,\s*updated_at\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1$`

	t.Run("updated", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("r1", "accepted", ts).WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.UpdateStatus(context.Background(), "r1", models.StatusAccepted, ts))
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("r1", "rejected", ts).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.UpdateStatus(context.Background(), "r1", models.StatusRejected, ts), common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnError(errors.New("down"))
		assert.ErrorContains(t, repo.UpdateStatus(context.Background(), "r1", models.StatusRejected, ts), "db error")
	})
}

func TestListReceived_FilteredAndPaged(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := `(?s)WHERE\s+recipient_id\s*=\s*\$1\s+AND\s+\(\$2\s*=\s*''\s+OR\s+status\s*=\s*\$2\)\s+ORDER\s+BY\s+updated_at\s+DESC,\s*id\s+LIMIT\s+\$3\s+OFFSET\s+\$4$`
	mock.ExpectQuery(q).
		WithArgs("u1", "pending", 10, 20).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(row("r2", "u3", "u1", "pending")...).
			AddRow(row("r1", "u2", "u1", "pending")...))

	got, err := repo.ListReceived(context.Background(), "u1", models.StatusPending, 10, 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r2", got[0].ID)
	assert.Equal(t, "r1", got[1].ID)
}

func TestListSent_EmptyIsNotNil(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE\s+sender_id\s*=\s*\$1`).
		WithArgs("u1", "", 50, 0).
		WillReturnRows(sqlmock.NewRows(cols))

	got, err := repo.ListSent(context.Background(), "u1", "", 50, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListReceived_QueryError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+friend_requests`).WillReturnError(errors.New("down"))

	_, err := repo.ListReceived(context.Background(), "u1", "", 50, 0)
	assert.ErrorContains(t, err, "failed to select friend requests")
}

func TestCountReceivedAndSent(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT\s+COUNT\(\*\)\s+FROM\s+friend_requests\s+WHERE\s+recipient_id`).
		WithArgs("u1", "").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`(?s)SELECT\s+COUNT\(\*\)\s+FROM\s+friend_requests\s+WHERE\s+sender_id`).
		WithArgs("u1", "accepted").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountReceived(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = repo.CountSent(context.Background(), "u1", models.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGetReceivedByID(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := `(?s)WHERE\s+id\s*=\s*\$1\s+AND\s+recipient_id\s*=\s*\$2$`
	mock.ExpectQuery(q).WithArgs("r1", "u1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(row("r1", "u2", "u1", "accepted")...))
	mock.ExpectQuery(q).WithArgs("r1", "u2").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetReceivedByID(context.Background(), "r1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)

	_, err = repo.GetReceivedByID(context.Background(), "r1", "u2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCountByStatus(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := `(?s)SELECT\s+status,\s*COUNT\(\*\)\s+FROM\s+friend_requests\s+WHERE\s+recipient_id\s*=\s*\$1\s+GROUP\s+BY\s+status$`
	mock.ExpectQuery(q).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("rejected", 1))
	mock.ExpectQuery(`(?s)WHERE\s+sender_id\s*=\s*\$1\s+GROUP\s+BY\s+status$`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("accepted", 4))

	recv, err := repo.CountReceivedByStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCounts{Pending: 3, Rejected: 1}, recv)

	sent, err := repo.CountSentByStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCounts{Accepted: 4}, sent)
}
