package layout

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Error codes for layout failures.
const (
	ErrCodeNotFound  = "LAYOUT_NOT_FOUND"
	ErrCodeParse     = "LAYOUT_PARSE"
	ErrCodeSchema    = "LAYOUT_SCHEMA"
	ErrCodeReference = "LAYOUT_REFERENCE"
)

// Error is a layout loading or validation failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Load reads, decodes and validates the layout at path.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading layout: %v", err)}
	}
	return Parse(data)
}

// Parse decodes and validates a YAML layout document.
// Unknown fields are rejected.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&l); err != nil {
		return nil, &Error{Code: ErrCodeParse, Message: fmt.Sprintf("parsing YAML: %v", err)}
	}
	if err := l.Prepare(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Prepare normalizes identifiers and validates l in place. Layouts built in
// code or embedded in other documents go through the same checks as Parse.
func (l *Layout) Prepare() error {
	l.Normalize()
	if err := l.CheckSchema(); err != nil {
		return err
	}
	return l.CheckReferences()
}

// CheckSchema validates l against the embedded #Layout definition.
func (l *Layout) CheckSchema() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return &Error{Code: ErrCodeSchema, Message: fmt.Sprintf("compiling schema: %v", err)}
	}
	def := schema.LookupPath(cue.ParsePath("#Layout"))

	data, err := json.Marshal(l)
	if err != nil {
		return &Error{Code: ErrCodeSchema, Message: fmt.Sprintf("encoding layout: %v", err)}
	}
	value := ctx.CompileBytes(data, cue.Filename(l.Name+".json"))
	if err := value.Err(); err != nil {
		return &Error{Code: ErrCodeSchema, Message: fmt.Sprintf("encoding layout: %v", err)}
	}
	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return &Error{Code: ErrCodeSchema, Message: err.Error()}
	}
	return nil
}

// Normalize rewrites every identifier to Unicode NFC, so visually equal
// names compare equal.
func (l *Layout) Normalize() {
	l.Name = norm.NFC.String(l.Name)
	for i := range l.Stations {
		s := &l.Stations[i]
		s.ID = norm.NFC.String(s.ID)
		s.ExitAssignedTo = norm.NFC.String(s.ExitAssignedTo)
		normalizeAll(s.Next)
		normalizeAll(s.Pool)
	}
	for i := range l.Operators {
		op := &l.Operators[i]
		op.ID = norm.NFC.String(op.ID)
		op.Serving = norm.NFC.String(op.Serving)
	}
	for i := range l.Jobs {
		j := &l.Jobs[i]
		j.ID = norm.NFC.String(j.ID)
		j.Station = norm.NFC.String(j.Station)
		j.Manager = norm.NFC.String(j.Manager)
		for k := range j.Route {
			normalizeAll(j.Route[k].Stations)
		}
	}
}

func normalizeAll(ids []string) {
	for i, id := range ids {
		ids[i] = norm.NFC.String(id)
	}
}

// CheckReferences reports duplicate identifiers and references to stations
// or operators the layout does not declare. Route steps may name stations
// outside the layout.
func (l *Layout) CheckReferences() error {
	stations := make(map[string]bool, len(l.Stations))
	for _, s := range l.Stations {
		if stations[s.ID] {
			return refError("duplicate station %q", s.ID)
		}
		stations[s.ID] = true
	}
	operators := make(map[string]bool, len(l.Operators))
	for _, op := range l.Operators {
		if operators[op.ID] {
			return refError("duplicate operator %q", op.ID)
		}
		operators[op.ID] = true
	}

	for _, s := range l.Stations {
		for _, next := range s.Next {
			if !stations[next] {
				return refError("station %q: unknown successor %q", s.ID, next)
			}
		}
		for _, id := range s.Pool {
			if !operators[id] {
				return refError("station %q: unknown pool operator %q", s.ID, id)
			}
		}
		if s.ExitAssignedTo != "" && !slices.Contains(s.Next, s.ExitAssignedTo) {
			return refError("station %q: exit assigned to %q which is not a successor", s.ID, s.ExitAssignedTo)
		}
	}

	for _, op := range l.Operators {
		if op.Serving != "" && !stations[op.Serving] {
			return refError("operator %q: serving unknown station %q", op.ID, op.Serving)
		}
	}

	jobs := make(map[string]bool, len(l.Jobs))
	for _, j := range l.Jobs {
		if jobs[j.ID] {
			return refError("duplicate job %q", j.ID)
		}
		jobs[j.ID] = true
		if !stations[j.Station] {
			return refError("job %q: unknown station %q", j.ID, j.Station)
		}
		if j.Manager != "" && !operators[j.Manager] {
			return refError("job %q: unknown manager %q", j.ID, j.Manager)
		}
	}
	return nil
}

func refError(format string, args ...any) error {
	return &Error{Code: ErrCodeReference, Message: fmt.Sprintf(format, args...)}
}
