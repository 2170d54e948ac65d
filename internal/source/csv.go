package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// csvAdapter reads tabular-file sources. The first row is the header.
type csvAdapter struct {
	path string
}

func (a *csvAdapter) open() (*os.File, *csv.Reader, []string, error) {
	f, err := os.Open(a.path)
	if err != nil {
		return nil, nil, nil, unavailable(fmt.Sprintf("open %s", a.path), err)
	}
	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, nil, nil, unavailable(fmt.Sprintf("read header of %s", a.path), err)
	}
	return f, r, header, nil
}

func (a *csvAdapter) Fields(ctx context.Context) ([]string, error) {
	f, _, header, err := a.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return header, nil
}

func (a *csvAdapter) Sample(ctx context.Context, limit int) (map[string][]string, error) {
	f, r, header, err := a.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples := make(map[string][]string, len(header))
	for i := 0; i < limit; i++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		for j, col := range header {
			if j < len(row) {
				samples[col] = append(samples[col], row[j])
			}
		}
	}
	return samples, nil
}

func (a *csvAdapter) Records(ctx context.Context) (Iterator, error) {
	f, r, header, err := a.open()
	if err != nil {
		return nil, err
	}
	return &csvIterator{file: f, reader: r, header: header}, nil
}

type csvIterator struct {
	file    *os.File
	reader  *csv.Reader
	header  []string
	skipped int
}

func (it *csvIterator) Next(ctx context.Context) (RawRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := it.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			// Malformed row. Skip it and keep reading.
			it.skipped++
			continue
		}
		rec := make(RawRecord, len(it.header))
		for i, col := range it.header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		return rec, nil
	}
}

func (it *csvIterator) Skipped() int { return it.skipped }

func (it *csvIterator) Close() error { return it.file.Close() }
