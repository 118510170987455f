package simauto

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gridauto/internal/coerce"
	"gridauto/internal/logging"
	"gridauto/internal/table"
)

// OpenCase loads a model file into the server. Paths are normalized to
// forward slashes before being sent.
func (s *Session) OpenCase(ctx context.Context, path string) error {
	if path == "" {
		s.callMu.Lock()
		path = s.casePath
		s.callMu.Unlock()
		if path == "" {
			return fmt.Errorf("open case requires a file name on first use")
		}
	}
	normalized := filepath.ToSlash(path)
	if _, err := s.Call(ctx, "OpenCase", normalized); err != nil {
		return err
	}

	s.callMu.Lock()
	s.casePath = normalized
	s.callMu.Unlock()
	s.logger.Info("opened case", logging.String("case_path", normalized))
	return nil
}

// CloseCase closes the open case without saving.
func (s *Session) CloseCase(ctx context.Context) error {
	_, err := s.Call(ctx, "CloseCase")
	return err
}

// SaveCase writes the current case to disk. An empty path reuses the
// path the case was opened from; an empty file type means the server's
// native binary format.
func (s *Session) SaveCase(ctx context.Context, path, fileType string, overwrite bool) error {
	if path == "" {
		path = s.CasePath()
		if path == "" {
			return fmt.Errorf("save case requires a file name when no case has been opened")
		}
	}
	if fileType == "" {
		fileType = "PWB"
	}
	_, err := s.Call(ctx, "SaveCase", filepath.ToSlash(path), fileType, overwrite)
	return err
}

// GetCaseHeader returns the header comment lines of a case file. An
// empty path means the currently open case.
func (s *Session) GetCaseHeader(ctx context.Context, path string) ([]string, error) {
	if path == "" {
		path = s.CasePath()
		if path == "" {
			return nil, fmt.Errorf("get case header requires a file name when no case has been opened")
		}
	}
	payload, err := s.Call(ctx, "GetCaseHeader", filepath.ToSlash(path))
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(payload))
	for _, raw := range payload {
		lines = append(lines, coerce.Format(raw))
	}
	return lines, nil
}

// RunScriptCommand executes script statements, the same actions accepted
// by the script sections of auxiliary files. The raw payload is returned
// for callers that want to inspect it.
func (s *Session) RunScriptCommand(ctx context.Context, statements string) ([]any, error) {
	return s.Call(ctx, "RunScriptCommand", statements)
}

// Power-flow solution methods accepted by SolvePowerFlow.
var solutionMethods = map[string]struct{}{
	"RECTNEWT":    {},
	"POLARNEWTON": {},
	"GAUSSSEIDEL": {},
	"FASTDEC":     {},
	"ROBUST":      {},
	"DC":          {},
}

// SolvePowerFlow runs a power-flow solution. An empty method selects
// rectangular Newton-Raphson.
func (s *Session) SolvePowerFlow(ctx context.Context, method string) error {
	normalized := strings.ToUpper(strings.TrimSpace(method))
	if normalized == "" {
		normalized = "RECTNEWT"
	}
	if _, ok := solutionMethods[normalized]; !ok {
		return fmt.Errorf("unknown power flow solution method %q", method)
	}
	_, err := s.RunScriptCommand(ctx, fmt.Sprintf("SolvePowerFlow(%s)", normalized))
	return err
}

// ProcessAuxFile loads an auxiliary file of batch data changes.
func (s *Session) ProcessAuxFile(ctx context.Context, path string) error {
	_, err := s.Call(ctx, "ProcessAuxFile", filepath.ToSlash(path))
	return err
}

// WriteAuxFile exports case data to an auxiliary file. The filter must
// already exist in the case; an empty name exports everything.
func (s *Session) WriteAuxFile(ctx context.Context, path, filterName, objectType string, appendTo bool, fields []string) error {
	_, err := s.Call(ctx, "WriteAuxFile", filepath.ToSlash(path), filterName, objectType, appendTo, toAnySlice(fields))
	return err
}

// SaveState snapshots the current system state on the server for later
// LoadState, useful when comparing scenarios.
func (s *Session) SaveState(ctx context.Context) error {
	_, err := s.Call(ctx, "SaveState")
	return err
}

// LoadState restores the state saved by SaveState. The server cannot
// restore across topology changes.
func (s *Session) LoadState(ctx context.Context) error {
	_, err := s.Call(ctx, "LoadState")
	return err
}

// specificFieldListColumns are the columns of GetSpecificFieldList
// results.
var specificFieldListColumns = []string{"variablename:location", "field", "column header", "field description"}

// GetSpecificFieldList returns identifying information about specific
// variablenames of an object type. "ALL" may be passed to list every
// field.
func (s *Session) GetSpecificFieldList(ctx context.Context, objectType string, variables []string) (*table.Table, error) {
	payload, err := s.Call(ctx, "GetSpecificFieldList", objectType, toAnySlice(variables))
	if err != nil {
		return nil, err
	}

	columns := make([]table.Column, len(specificFieldListColumns))
	for i, name := range specificFieldListColumns {
		columns[i] = table.Column{Name: name, Type: coerce.String}
	}
	out := table.New(columns)
	for i, raw := range asRows(payload) {
		row, ok := raw.([]any)
		if !ok || len(row) != len(columns) {
			return nil, &ShapeError{ObjectType: objectType, Row: i, Want: len(columns), Got: rowWidth(raw)}
		}
		values := make([]any, len(row))
		for j, cell := range row {
			values[j] = strings.TrimSpace(coerce.Format(cell))
		}
		if err := out.AppendRow(values); err != nil {
			return nil, err
		}
	}
	out.SortBy(specificFieldListColumns[0])
	return out, nil
}

// GetSpecificFieldMaxNum returns the maximum location number used by a
// variablename for an object type. The server signals failure for this
// one function by returning a bare -1.
func (s *Session) GetSpecificFieldMaxNum(ctx context.Context, objectType, field string) (int, error) {
	payload, err := s.Call(ctx, "GetSpecificFieldMaxNum", objectType, field)
	if err != nil {
		return 0, err
	}
	if len(payload) != 1 {
		return 0, &ShapeError{ObjectType: objectType, Row: 0, Want: 1, Got: len(payload)}
	}
	value, err := coerce.Value(payload[0], coerce.Integer)
	if err != nil {
		return 0, &ConversionError{ObjectType: objectType, Field: field, Row: 0, Value: payload[0], Err: err}
	}
	n := value.(int64)
	if n == -1 {
		return 0, &CallError{
			Function: "GetSpecificFieldMaxNum",
			Message:  fmt.Sprintf("server returned -1 for %s %s; the arguments may be invalid or misordered", objectType, field),
		}
	}
	return int(n), nil
}
