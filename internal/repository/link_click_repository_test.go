package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelaskita/affiliate-api/internal/models"
)

func TestLinkClickCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLinkClickRepository(db)

	mock.ExpectExec("INSERT INTO link_clicks").WillReturnResult(sqlmock.NewResult(1, 1))

	ua := "Mozilla/5.0"
	click := &models.LinkClick{AffiliateID: "aff-1", IPAddress: "203.0.113.9", UserAgent: &ua}
	require.NoError(t, repo.Create(context.Background(), click))
	assert.NotEmpty(t, click.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkClickCreateNilUserAgent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLinkClickRepository(db)

	mock.ExpectExec("INSERT INTO link_clicks").WillReturnResult(sqlmock.NewResult(1, 1))

	click := &models.LinkClick{AffiliateID: "aff-1", IPAddress: "203.0.113.9"}
	require.NoError(t, repo.Create(context.Background(), click))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkClickCountByAffiliate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLinkClickRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM link_clicks WHERE affiliate_id = $1")).
		WithArgs("aff-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountByAffiliate(context.Background(), "aff-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkClickListByAffiliate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLinkClickRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "affiliate_id", "ip_address", "user_agent", "created_at"}).
		AddRow("c1", "aff-1", "203.0.113.9", nil, now).
		AddRow("c2", "aff-1", "203.0.113.10", "curl/8.0", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, affiliate_id, ip_address, user_agent, created_at FROM link_clicks WHERE affiliate_id = $1 ORDER BY created_at DESC")).
		WithArgs("aff-1").
		WillReturnRows(rows)

	clicks, err := repo.ListByAffiliate(context.Background(), "aff-1")
	require.NoError(t, err)
	require.Len(t, clicks, 2)
	assert.Nil(t, clicks[0].UserAgent)
	require.NotNil(t, clicks[1].UserAgent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
