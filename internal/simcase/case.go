package simcase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"gridauto/internal/coerce"
	"gridauto/internal/logging"
	"gridauto/internal/simauto"
)

// Case is a simulated automation endpoint. It implements
// simauto.Endpoint directly and can also sit behind a bridge server.
// All access is serialized; the real server is single-threaded too.
type Case struct {
	logger *slog.Logger

	mu               sync.Mutex
	casePath         string
	solved           bool
	createIfNotFound bool
	uiVisible        bool
	currentDir       string
	objects          map[string][]record
	savedState       map[string][]record
}

// New builds a case preloaded with the built-in model.
func New(logger *slog.Logger) *Case {
	return &Case{
		logger:  logging.NewComponentLogger(logger, "simcase"),
		objects: seedModel(),
	}
}

// Invoke implements simauto.Endpoint. Failures the real server would
// report travel in the reply's error flag; Go errors are reserved for
// transport-level problems, which an in-memory case does not have.
func (c *Case) Invoke(_ context.Context, function string, params []any) (simauto.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Debug("invoke", logging.String(logging.FieldFunction, function))

	switch function {
	case "OpenCase":
		return c.openCase(params), nil
	case "CloseCase":
		return c.closeCase(), nil
	case "SaveCase":
		return c.saveCase(params), nil
	case "GetCaseHeader":
		return c.caseHeader(), nil
	case "GetFieldList":
		return c.fieldList(params), nil
	case "GetKeyFieldList":
		return c.keyFieldList(params), nil
	case "GetParametersSingleElement":
		return c.getSingle(params), nil
	case "GetParametersMultipleElement":
		return c.getMultiple(params), nil
	case "ListOfDevices":
		return c.listOfDevices(params), nil
	case "ChangeParametersSingleElement":
		return c.changeSingle(params), nil
	case "ChangeParametersMultipleElement":
		return c.changeMultiple(params), nil
	case "RunScriptCommand":
		return c.runScript(params), nil
	case "ProcessAuxFile":
		return c.processAuxFile(params), nil
	case "WriteAuxFile":
		return c.writeAuxFile(params), nil
	case "SaveState":
		return c.saveState(), nil
	case "LoadState":
		return c.loadState(), nil
	case "SetSimAutoProperty":
		return c.setProperty(params), nil
	case "GetSpecificFieldList":
		return c.specificFieldList(params), nil
	case "GetSpecificFieldMaxNum":
		return c.specificFieldMaxNum(params), nil
	default:
		return fail("function %s is not supported", function), nil
	}
}

// Close implements simauto.Endpoint.
func (c *Case) Close() error { return nil }

func (c *Case) openCase(params []any) simauto.Reply {
	path, err := paramString(params, 0)
	if err != nil {
		return failErr(err)
	}
	if path == "" {
		return fail("OpenCase requires a file name")
	}
	c.objects = seedModel()
	c.savedState = nil
	c.solved = false
	c.casePath = path
	return ok()
}

// closeCase drops the case association but keeps the resident model, so
// sessions that come and go do not wipe each other's edits. OpenCase is
// what reloads a pristine model.
func (c *Case) closeCase() simauto.Reply {
	c.casePath = ""
	return ok()
}

func (c *Case) caseHeader() simauto.Reply {
	solved := "no"
	if c.solved {
		solved = "yes"
	}
	path := c.casePath
	if path == "" {
		path = "(built-in model)"
	}
	return ok(
		fmt.Sprintf("Case: %s", path),
		fmt.Sprintf("Buses: %d  Generators: %d  Loads: %d", len(c.objects["bus"]), len(c.objects["gen"]), len(c.objects["load"])),
		fmt.Sprintf("Solved: %s", solved),
	)
}

func (c *Case) fieldList(params []any) simauto.Reply {
	s, reply := c.schemaParam(params)
	if s == nil {
		return reply
	}
	rows := make([]any, len(s.Fields))
	for i, f := range s.Fields {
		rows[i] = []any{f.KeyMarker, f.Name, string(f.Type), f.Description, f.Display}
	}
	return ok(rows...)
}

func (c *Case) keyFieldList(params []any) simauto.Reply {
	s, reply := c.schemaParam(params)
	if s == nil {
		return reply
	}
	keys := s.keys()
	payload := make([]any, len(keys))
	for i, k := range keys {
		payload[i] = k
	}
	return ok(payload...)
}

var solveCommand = regexp.MustCompile(`(?i)^\s*SolvePowerFlow\s*(?:\(\s*([A-Za-z]*)\s*\))?\s*;?\s*$`)

func (c *Case) runScript(params []any) simauto.Reply {
	script, err := paramString(params, 0)
	if err != nil {
		return failErr(err)
	}
	if m := solveCommand.FindStringSubmatch(script); m != nil {
		c.solve()
		return ok()
	}
	return fail("script command not supported: %s", strings.TrimSpace(script))
}

// solve recomputes each bus's net injection from the attached
// generators, loads, and shunts. No actual power flow runs.
func (c *Case) solve() {
	for _, bus := range c.objects["bus"] {
		num := bus["BusNum"]
		netMW, netMVR := 0.0, 0.0
		for _, gen := range c.objects["gen"] {
			if gen["BusNum"] == num {
				netMW += gen["GenMW"].(float64)
				netMVR += gen["GenMVR"].(float64)
			}
		}
		for _, load := range c.objects["load"] {
			if load["BusNum"] == num {
				netMW -= load["LoadMW"].(float64)
				netMVR -= load["LoadMVR"].(float64)
			}
		}
		for _, shunt := range c.objects["shunt"] {
			if shunt["BusNum"] == num {
				netMW -= shunt["ShuntMW"].(float64)
				netMVR += shunt["ShuntMVR"].(float64)
			}
		}
		bus["BusNetMW"] = netMW
		bus["BusNetMVR"] = netMVR
	}
	c.solved = true
}

func (c *Case) saveState() simauto.Reply {
	c.savedState = make(map[string][]record, len(c.objects))
	for objectType, records := range c.objects {
		c.savedState[objectType] = cloneRecords(records)
	}
	return ok()
}

func (c *Case) loadState() simauto.Reply {
	if c.savedState == nil {
		return fail("LoadState called without a prior SaveState")
	}
	c.objects = make(map[string][]record, len(c.savedState))
	for objectType, records := range c.savedState {
		c.objects[objectType] = cloneRecords(records)
	}
	return ok()
}

func (c *Case) setProperty(params []any) simauto.Reply {
	name, err := paramString(params, 0)
	if err != nil {
		return failErr(err)
	}
	if len(params) < 2 {
		return fail("SetSimAutoProperty requires a value")
	}
	value := params[1]

	switch {
	case strings.EqualFold(name, "CreateIfNotFound"):
		b, isBool := value.(bool)
		if !isBool {
			return fail("property CreateIfNotFound requires a boolean")
		}
		c.createIfNotFound = b
	case strings.EqualFold(name, "UIVisible"):
		b, isBool := value.(bool)
		if !isBool {
			return fail("property UIVisible requires a boolean")
		}
		c.uiVisible = b
	case strings.EqualFold(name, "CurrentDir"):
		dir, isString := value.(string)
		if !isString {
			return fail("property CurrentDir requires a string")
		}
		c.currentDir = dir
	default:
		return fail("unknown property %s", name)
	}
	return ok()
}

func (c *Case) schemaParam(params []any) (*schema, simauto.Reply) {
	objectType, err := paramString(params, 0)
	if err != nil {
		return nil, failErr(err)
	}
	s, found := lookupSchema(objectType)
	if !found {
		return nil, fail("object type %s does not exist", objectType)
	}
	return s, simauto.Reply{}
}

func ok(payload ...any) simauto.Reply {
	return simauto.Reply{Payload: payload}
}

func fail(format string, args ...any) simauto.Reply {
	message := fmt.Sprintf(format, args...)
	return simauto.Reply{ErrorFlag: message, ErrorMessage: message}
}

func failErr(err error) simauto.Reply {
	return fail("%s", err)
}

func noData() simauto.Reply {
	return simauto.Reply{ErrorFlag: "No data returned for the requested object type"}
}

func paramString(params []any, i int) (string, error) {
	if i >= len(params) {
		return "", fmt.Errorf("missing parameter %d", i+1)
	}
	s, isString := params[i].(string)
	if !isString {
		return "", fmt.Errorf("parameter %d must be a string, got %T", i+1, params[i])
	}
	return strings.TrimSpace(s), nil
}

func paramBool(params []any, i int) (bool, error) {
	if i >= len(params) {
		return false, fmt.Errorf("missing parameter %d", i+1)
	}
	b, isBool := params[i].(bool)
	if !isBool {
		return false, fmt.Errorf("parameter %d must be a boolean, got %T", i+1, params[i])
	}
	return b, nil
}

func paramSlice(params []any, i int) ([]any, error) {
	if i >= len(params) {
		return nil, fmt.Errorf("missing parameter %d", i+1)
	}
	s, isSlice := params[i].([]any)
	if !isSlice {
		return nil, fmt.Errorf("parameter %d must be a list, got %T", i+1, params[i])
	}
	return s, nil
}

func paramStrings(params []any, i int) ([]string, error) {
	raw, err := paramSlice(params, i)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(raw))
	for j, v := range raw {
		out[j] = strings.TrimSpace(coerce.Format(v))
	}
	return out, nil
}

// pad right-justifies a cell the way the real server pads fixed-width
// columns. Clients are expected to trim.
func pad(v any) string {
	return fmt.Sprintf("%8s", coerce.Format(v))
}
