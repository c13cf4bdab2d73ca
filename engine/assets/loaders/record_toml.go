package loaders

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-custom-asset/engine/resources"
)

type recordTOML struct {
	TestField *string `toml:"test_field"`
}

// RecordTOMLLoader reads the same Record from a TOML document:
//
//	test_field = "text"
type RecordTOMLLoader struct{}

func (tl *RecordTOMLLoader) Extensions() []string {
	return []string{"test.toml"}
}

func (tl *RecordTOMLLoader) Load(ctx context.Context, r io.Reader, settings resources.Settings, lc *resources.LoadContext) (interface{}, error) {
	b, err := ReadAll(ctx, r)
	if err != nil {
		return nil, err
	}
	record, err := ParseRecordTOML(b)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func ParseRecordTOML(b []byte) (*resources.Record, error) {
	var doc recordTOML
	if err := toml.Unmarshal(b, &doc); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, column := decodeErr.Position()
			return nil, &resources.FormatError{Line: row, Column: column, Msg: decodeErr.Error(), Err: err}
		}
		return nil, &resources.FormatError{Msg: err.Error(), Err: err}
	}
	if doc.TestField == nil {
		return nil, &resources.FormatError{Line: 1, Column: 1, Msg: fmt.Sprintf("missing field `%s`", recordField)}
	}
	return resources.NewRecord(*doc.TestField), nil
}
