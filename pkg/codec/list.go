package codec

import (
	"fmt"
	"time"

	"github.com/buger/jsonparser"

	"github.com/devnotes/devnotes.go/pkg/constants"
)

// RecordError describes one list element that could not be decoded.
type RecordError struct {
	Index int
	Err   error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// ListResult holds the decodable records of a list response together with
// the ones that were dropped.
type ListResult[T any] struct {
	Items   []T
	Skipped []RecordError
}

// decodeList walks a top-level JSON array. Only a payload that is not an
// array at all is an error; bad elements end up in Skipped.
func decodeList[T any](data []byte, decodeOne func([]byte) (T, error)) (ListResult[T], error) {
	_, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return ListResult[T]{}, fmt.Errorf("%w: %v", constants.ErrMalformedResponse, err)
	}
	if dataType != jsonparser.Array {
		return ListResult[T]{}, fmt.Errorf("%w: expected array, got %s", constants.ErrMalformedResponse, dataType)
	}

	res := ListResult[T]{Items: make([]T, 0)}
	index := 0
	_, err = jsonparser.ArrayEach(data, func(value []byte, vt jsonparser.ValueType, _ int, cbErr error) {
		i := index
		index++
		if cbErr != nil {
			res.Skipped = append(res.Skipped, RecordError{Index: i, Err: cbErr})
			return
		}
		if vt != jsonparser.Object {
			res.Skipped = append(res.Skipped, RecordError{
				Index: i,
				Err:   fmt.Errorf("%w: element is %s, not an object", constants.ErrMalformedResponse, vt),
			})
			return
		}
		item, err := decodeOne(value)
		if err != nil {
			res.Skipped = append(res.Skipped, RecordError{Index: i, Err: err})
			return
		}
		res.Items = append(res.Items, item)
	})
	if err != nil {
		return ListResult[T]{}, fmt.Errorf("%w: %v", constants.ErrMalformedResponse, err)
	}

	return res, nil
}

func requiredString(data []byte, key string) (string, error) {
	s, err := jsonparser.GetString(data, key)
	if err != nil {
		return "", fmt.Errorf("%w: %s", constants.ErrMissingField, key)
	}
	return s, nil
}

func optionalString(data []byte, keys ...string) string {
	for _, key := range keys {
		if s, err := jsonparser.GetString(data, key); err == nil {
			return s
		}
	}
	return ""
}

func optionalFloat(data []byte, key string) float64 {
	f, err := jsonparser.GetFloat(data, key)
	if err != nil {
		return 0
	}
	return f
}

func (c *Codec) optionalTime(data []byte, key string) time.Time {
	s, err := jsonparser.GetString(data, key)
	if err != nil {
		return c.now()
	}
	t, ok := ParseTime(s)
	if !ok {
		return c.now()
	}
	return t
}
