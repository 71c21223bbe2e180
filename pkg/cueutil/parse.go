// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

var (
	// ErrFieldNotFound is returned by LookupInt when the field is absent.
	ErrFieldNotFound = errors.New("field not found")
	// ErrNotInteger is returned by LookupInt when the field is not a concrete integer.
	ErrNotInteger = errors.New("field is not an integer")
)

// ParseResult contains the result of a successful CUE parse operation.
type ParseResult[T any] struct {
	// Value is the decoded Go struct.
	Value *T

	// Unified is the unified CUE value.
	Unified cue.Value
}

// ParseAndDecode compiles schema, unifies data with the definition at
// schemaPath, validates the result and decodes it into T.
//
// Errors from user data are formatted with JSON-path prefixes by FormatError.
// Errors prefixed with "internal error" indicate a broken embedded schema.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := applyOptions(opts)
	filename := options.filename

	if err := CheckFileSize(data, options.maxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	unified := schemaRoot.Unify(userValue)

	var validateOpts []cue.Option
	if options.concrete {
		validateOpts = append(validateOpts, cue.Concrete(true))
	}
	if err := unified.Validate(validateOpts...); err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &ParseResult[T]{
		Value:   &result,
		Unified: unified,
	}, nil
}

// Compile compiles data without a schema. It applies the same size limit as
// ParseAndDecode and formats syntax errors the same way.
func Compile(data []byte, opts ...Option) (cue.Value, error) {
	options := applyOptions(opts)
	if err := CheckFileSize(data, options.maxFileSize, options.filename); err != nil {
		return cue.Value{}, err
	}

	v := cuecontext.New().CompileBytes(data, cue.Filename(options.filename))
	if v.Err() != nil {
		return cue.Value{}, FormatError(v.Err(), options.filename)
	}
	return v, nil
}

// LookupInt reads the concrete integer at path. It returns ErrFieldNotFound
// when the field does not exist and ErrNotInteger when it holds any other
// kind of value (including floats and incomplete values).
func LookupInt(v cue.Value, path string) (int64, error) {
	field := v.LookupPath(cue.ParsePath(path))
	if !field.Exists() {
		return 0, fmt.Errorf("%s: %w", path, ErrFieldNotFound)
	}
	if field.IncompleteKind() != cue.IntKind || !field.IsConcrete() {
		return 0, fmt.Errorf("%s: %w", path, ErrNotInteger)
	}
	n, err := field.Int64()
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", path, ErrNotInteger, err)
	}
	return n, nil
}
