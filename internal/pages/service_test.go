package pages

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db), mock
}

var pageColumns = []string{"PAGE_ID", "PAGE_NAME", "SOURCE_TABLE", "CREATED_AT", "UPDATED_AT", "ADS_LIST"}

func TestList(t *testing.T) {
	svc, mock := newMock(t)
	now := time.Now()

	rows := sqlmock.NewRows(pageColumns).
		AddRow(1, "Sneakers Q3", "ADS_RAW_202507", now, now, `[{"brand":"A","url":"http://x/a.mp4","impression":10,"spend":2.5}]`).
		AddRow(2, "Autos", "ADS_RAW_202508", now, now, nil)
	mock.ExpectQuery("SELECT PAGE_ID, PAGE_NAME").WillReturnRows(rows)

	pages, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, "Sneakers Q3", pages[0].PageName)
	require.Len(t, pages[0].AdsList, 1)
	assert.Equal(t, "http://x/a.mp4", pages[0].AdsList[0].URL)
	assert.Empty(t, pages[1].AdsList)
}

func TestGetNotFound(t *testing.T) {
	svc, mock := newMock(t)
	mock.ExpectQuery("SELECT PAGE_ID, PAGE_NAME").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(pageColumns))

	_, err := svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(`SELECT MAX\(PAGE_ID\)`).
		WillReturnRows(sqlmock.NewRows([]string{"MAX"}).AddRow(7))

	adRows := sqlmock.NewRows([]string{"BRAND", "CREATIVE_URL_SUPPLIER", "IMPRESSIONS", "SPEND"}).
		AddRow("A", "http://x/a.mp4", 1000.0, 25.0).
		AddRow("B", "http://x/b.mp4", 500.0, 10.0)
	mock.ExpectQuery("SELECT BRAND, CREATIVE_URL_SUPPLIER").WillReturnRows(adRows)

	mock.ExpectExec("INSERT INTO EMBEDDED_PAGES").
		WithArgs(int64(8), "New Page", "ADS_RAW_202508", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, ads, err := svc.Create(context.Background(), CreateRequest{
		PageName:    "New Page",
		SourceTable: "ADS_RAW_202508",
		ValueType:   ValueRaw,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), id)
	require.Len(t, ads, 2)
	assert.Equal(t, "A", ads[0].Brand)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsBadTableName(t *testing.T) {
	svc, _ := newMock(t)

	_, _, err := svc.Create(context.Background(), CreateRequest{
		PageName:    "x",
		SourceTable: `ADS; DROP TABLE EMBEDDED_PAGES`,
	})
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestCreateFirstPageStartsAtOne(t *testing.T) {
	svc, mock := newMock(t)

	// MAX over an empty table yields NULL
	mock.ExpectQuery(`SELECT MAX\(PAGE_ID\)`).
		WillReturnRows(sqlmock.NewRows([]string{"MAX"}).AddRow(nil))
	mock.ExpectQuery("SELECT BRAND, CREATIVE_URL_SUPPLIER").
		WillReturnRows(sqlmock.NewRows([]string{"BRAND", "CREATIVE_URL_SUPPLIER", "IMPRESSIONS", "SPEND"}))
	mock.ExpectExec("INSERT INTO EMBEDDED_PAGES").
		WithArgs(int64(1), "First", "T1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, _, err := svc.Create(context.Background(), CreateRequest{PageName: "First", SourceTable: "T1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestUpdateNotFound(t *testing.T) {
	svc, mock := newMock(t)
	mock.ExpectExec("UPDATE EMBEDDED_PAGES").
		WithArgs("Renamed", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Update(context.Background(), 42, UpdateRequest{PageName: "Renamed"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, mock := newMock(t)
	mock.ExpectExec("DELETE FROM EMBEDDED_PAGES").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, svc.Delete(context.Background(), 3))
}
