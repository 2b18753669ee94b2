// Package checkers provides quicktest checkers shared by the test suites.
package checkers

import (
	"encoding/json"
	"fmt"
	"reflect"

	qt "github.com/frankban/quicktest"
	"github.com/yalp/jsonpath"
)

// JSONPathEquals returns a checker asserting that the JSON document in got
// (a string or []byte) holds the expected value at the given jsonpath.
func JSONPathEquals(path string) qt.Checker {
	return &jsonPathChecker{path: path}
}

type jsonPathChecker struct {
	path string
}

func (c *jsonPathChecker) ArgNames() []string {
	return []string{"got", "want"}
}

func (c *jsonPathChecker) Check(got any, args []any, note func(key string, value any)) error {
	var raw []byte
	switch v := got.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("got value must be a JSON string or []byte, not %T", got)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON document: %v", err)
	}

	actual, err := jsonpath.Read(doc, c.path)
	if err != nil {
		return fmt.Errorf("jsonpath %q: %v", c.path, err)
	}

	if !reflect.DeepEqual(actual, args[0]) {
		note("path", c.path)
		note("value at path", actual)
		return fmt.Errorf("value at %q does not match", c.path)
	}
	return nil
}
