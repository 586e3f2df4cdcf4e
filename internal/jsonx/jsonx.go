// Package jsonx decodes JSON produced by language models, which is often
// fenced in markdown or slightly malformed.
package jsonx

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Unmarshal decodes data into v. Markdown code fences are stripped, and on a
// syntax error the input is repaired with jsonrepair and decoded again.
func Unmarshal(data []byte, v any) error {
	s := StripFences(string(data))
	if s == "" {
		return errors.New("jsonx: empty input")
	}

	err := json.Unmarshal([]byte(s), v)
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return err
	}

	fixed, rerr := jsonrepair.JSONRepair(s)
	if rerr != nil {
		return err
	}
	return json.Unmarshal([]byte(fixed), v)
}

// StripFences removes a surrounding ```json ... ``` block and trims space.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
