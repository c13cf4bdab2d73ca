package resources

import (
	"fmt"
	"strconv"
)

/**
 * @brief The single custom asset type. Built once per successful parse and
 * never mutated afterwards.
 */
type Record struct {
	/** @brief Decoded value of `test_field`. */
	testField string
}

func NewRecord(testField string) *Record {
	return &Record{testField: testField}
}

func (r *Record) TestField() string {
	return r.testField
}

// Equal reports value equality; two records are equal when their fields are.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.testField == other.testField
}

func (r *Record) String() string {
	if r == nil {
		return "Record <nil>"
	}
	return fmt.Sprintf("Record { test_field: %s }", strconv.Quote(r.testField))
}

/** @brief Loader settings. Record loaders recognise no options. */
type Settings struct{}

/**
 * @brief Host provided context for a single load. Loaders are free to ignore it.
 */
type LoadContext struct {
	/** @brief The asset path relative to the asset root. */
	path string
	/** @brief The registered extension that selected the loader. */
	extension string
}

func NewLoadContext(path, extension string) *LoadContext {
	return &LoadContext{path: path, extension: extension}
}

func (lc *LoadContext) Path() string {
	if lc == nil {
		return ""
	}
	return lc.path
}

func (lc *LoadContext) Extension() string {
	if lc == nil {
		return ""
	}
	return lc.extension
}
