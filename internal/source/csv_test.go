package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVAdapter(t *testing.T) {
	path := writeFile(t, "customers.csv",
		"full_name,dob,passport_number\n"+
			"Rahul Mehra,1990-02-10,P1234567\n"+
			"broken,row,with,too,many,cells\n"+
			"Priya Sharma,,\n")
	a := &csvAdapter{path: path}
	ctx := context.Background()

	fields, err := a.Fields(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"full_name", "dob", "passport_number"}, fields)

	samples, err := a.Sample(ctx, DefaultSampleSize)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rahul Mehra", "Priya Sharma"}, samples["full_name"])

	it, err := a.Records(ctx)
	require.NoError(t, err)
	defer it.Close()

	var records []RawRecord
	for {
		rec, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		records = append(records, rec)
	}

	require.Len(t, records, 2)
	assert.Equal(t, "Rahul Mehra", records[0]["full_name"])
	assert.Equal(t, "P1234567", records[0]["passport_number"])
	// Empty cells are present in the raw record; normalization drops them.
	assert.Equal(t, "", records[1]["dob"])
	assert.Equal(t, 1, it.Skipped())

	_, err = it.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestCSVAdapterMissingFile(t *testing.T) {
	a := &csvAdapter{path: filepath.Join(t.TempDir(), "nope.csv")}

	_, err := a.Fields(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	_, err = a.Records(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestCSVAdapterCancelledContext(t *testing.T) {
	path := writeFile(t, "one.csv", "name\nRahul\n")
	a := &csvAdapter{path: path}

	it, err := a.Records(context.Background())
	require.NoError(t, err)
	defer it.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = it.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
