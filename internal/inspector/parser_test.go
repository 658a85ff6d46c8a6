package inspector

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSV(t *testing.T) {
	data := []byte("BRAND,CREATIVE_URL_SUPPLIER,IMPRESSIONS\n" +
		"A,http://x/a.jpg,10\n" +
		"B,http://x/b.mp4,0\n" +
		"C,,5\n")

	res, err := Parse("ads.csv", data)
	require.NoError(t, err)

	require.Len(t, res.Records, 3)
	assert.Equal(t, []string{"BRAND", "CREATIVE_URL_SUPPLIER", "IMPRESSIONS"}, res.Columns)

	assert.Equal(t, 0, res.Records[0].ID)
	assert.Equal(t, 1, res.Records[1].ID)
	assert.Equal(t, 2, res.Records[2].ID)

	assert.Equal(t, "http://x/b.mp4", res.Records[1].MediaURL)
	assert.Empty(t, res.Records[2].MediaURL)

	for _, rec := range res.Records {
		assert.False(t, rec.IsFaulty)
		assert.Empty(t, rec.Remark)
	}
}

func TestParseEmptyFile(t *testing.T) {
	_, err := Parse("empty.csv", []byte("BRAND,IMPRESSIONS\n"))
	require.ErrorIs(t, err, ErrEmptyFile)

	_, err = Parse("empty.csv", nil)
	require.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseFaultyCoercion(t *testing.T) {
	data := []byte("BRAND,isFaulty\n" +
		"a,true\nb,TRUE\nc,yes\nd,1\ne,false\nf,\ng,no\nh,0\ni,banana\n")

	res, err := Parse("flags.csv", data)
	require.NoError(t, err)
	require.Len(t, res.Records, 9)

	want := []bool{true, true, true, true, false, false, false, false, false}
	for i, rec := range res.Records {
		assert.Equal(t, want[i], rec.IsFaulty, "row %d", i)
	}
}

func TestParseRemarkRoundTrip(t *testing.T) {
	data := []byte("BRAND,remark\nA,needs review\nB,\n")
	res, err := Parse("annotated.csv", data)
	require.NoError(t, err)

	assert.Equal(t, "needs review", res.Records[0].Remark)
	assert.Empty(t, res.Records[1].Remark)
}

func TestParseHeterogeneousRows(t *testing.T) {
	data := []byte("A,B,C\n1,2,3\nonly\n")
	res, err := Parse("ragged.csv", data)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	assert.Equal(t, TextCell("only"), res.Records[1].Fields["A"])
	assert.Equal(t, EmptyCell(), res.Records[1].Fields["B"])
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseSpreadsheet(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"BRAND", "IMPRESSIONS", "isFaulty"},
		{"A", 1200, true},
		{"B", 7, false},
	})

	res, err := Parse("report.xlsx", data)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	assert.Equal(t, NumberCell(1200), res.Records[0].Fields["IMPRESSIONS"])
	assert.True(t, res.Records[0].IsFaulty)
	assert.False(t, res.Records[1].IsFaulty)
}

func TestParseStrict(t *testing.T) {
	data := []byte("country,CATEGORY,BRAND,PLATFORM,MONTH,IMPRESSIONS,EXTRA\n" +
		"US,Retail,Acme,meta,45000,100,x\n" +
		"DE,Retail,Acme,tiktok,3/5/2024,0,y\n")

	res, err := ParseStrict("social.csv", data)
	require.NoError(t, err)

	assert.Equal(t, requiredColumns, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []string{"US", "Retail", "Acme", "meta", "2023-03-15", "100"}, res.Rows[0])
	assert.Equal(t, "2024-03-05", res.Rows[1][4])
	assert.Equal(t, []int{1}, res.ZeroRows)
}

func TestParseStrictMissingColumns(t *testing.T) {
	_, err := ParseStrict("social.csv", []byte("COUNTRY,BRAND\nUS,Acme\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATEGORY")
	assert.Contains(t, err.Error(), "PLATFORM")
}
