package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// jsonAdapter reads semi-structured-file sources: a JSON array of record
// objects, or a single record object.
type jsonAdapter struct {
	path string
}

func (a *jsonAdapter) Fields(ctx context.Context) ([]string, error) {
	samples, err := a.Sample(ctx, DefaultSampleSize)
	if err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(samples))
	for k := range samples {
		fields = append(fields, k)
	}
	// JSON decoding does not preserve key order; sort for determinism.
	sort.Strings(fields)
	return fields, nil
}

func (a *jsonAdapter) Sample(ctx context.Context, limit int) (map[string][]string, error) {
	it, err := a.Records(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	samples := make(map[string][]string)
	for i := 0; i < limit; i++ {
		rec, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for k, v := range rec {
			samples[k] = append(samples[k], v)
		}
	}
	return samples, nil
}

func (a *jsonAdapter) Records(ctx context.Context) (Iterator, error) {
	f, err := os.Open(a.path)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("open %s", a.path), err)
	}

	dec := json.NewDecoder(f)
	tok, err := dec.Token()
	if err != nil {
		f.Close()
		return nil, unavailable(fmt.Sprintf("decode %s", a.path), err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		f.Close()
		return nil, unavailable(fmt.Sprintf("decode %s", a.path),
			fmt.Errorf("top-level value %v is not a record array or object", tok))
	}

	switch delim {
	case '[':
		return &jsonIterator{file: f, dec: dec, array: true}, nil
	case '{':
		// A single record object. Small by definition, so decode it whole.
		f.Close()
		data, err := os.ReadFile(a.path)
		if err != nil {
			return nil, unavailable(fmt.Sprintf("open %s", a.path), err)
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, unavailable(fmt.Sprintf("decode %s", a.path), err)
		}
		return &jsonIterator{pending: []map[string]any{raw}}, nil
	default:
		f.Close()
		return nil, unavailable(fmt.Sprintf("decode %s", a.path),
			fmt.Errorf("unexpected delimiter %v", delim))
	}
}

type jsonIterator struct {
	file    *os.File
	dec     *json.Decoder
	array   bool
	pending []map[string]any
	done    bool
	skipped int
}

func (it *jsonIterator) Next(ctx context.Context) (RawRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(it.pending) > 0 {
			raw := it.pending[0]
			it.pending = it.pending[1:]
			if rec, ok := it.flatten(raw); ok {
				return rec, nil
			}
			continue
		}
		if it.done || !it.array {
			return nil, io.EOF
		}
		if !it.dec.More() {
			it.done = true
			return nil, io.EOF
		}

		var raw map[string]any
		if err := it.dec.Decode(&raw); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				// Valid JSON element, but not a record object. Skip it.
				it.skipped++
				continue
			}
			// Syntax errors break the stream for good.
			it.done = true
			return nil, fmt.Errorf("decode record: %w", err)
		}
		if rec, ok := it.flatten(raw); ok {
			return rec, nil
		}
	}
}

func (it *jsonIterator) flatten(raw map[string]any) (RawRecord, bool) {
	rec, err := flattenRecord(raw)
	if err != nil {
		it.skipped++
		return nil, false
	}
	return rec, true
}

func (it *jsonIterator) Skipped() int { return it.skipped }

func (it *jsonIterator) Close() error {
	if it.file == nil {
		return nil
	}
	return it.file.Close()
}

// flattenRecord converts a decoded JSON object into a string-valued record.
// Scalar values convert weakly (numbers keep their textual form), JSON null
// becomes an absent field, and nested objects or arrays are dropped.
func flattenRecord(raw map[string]any) (RawRecord, error) {
	scalars := make(map[string]any, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case nil, map[string]any, []any:
		default:
			scalars[k] = v
		}
	}

	rec := make(RawRecord, len(scalars))
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &rec,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(scalars); err != nil {
		return nil, err
	}
	return rec, nil
}
