package simcase

import (
	"sort"
	"strings"

	"gridauto/internal/coerce"
)

// fieldDef describes one field of a simulated object type. KeyMarker is
// the server's key notation: "*1*" for the primary key, "*2A*" for a
// secondary alphanumeric key, empty for data fields.
type fieldDef struct {
	Name        string
	Type        coerce.FieldType
	KeyMarker   string
	Description string
	Display     string
}

type schema struct {
	ObjectType string
	Fields     []fieldDef
}

// keys returns the key-field names ordered by marker position.
func (s *schema) keys() []string {
	type keyed struct {
		name   string
		marker string
	}
	var found []keyed
	for _, f := range s.Fields {
		if f.KeyMarker != "" {
			found = append(found, keyed{name: f.Name, marker: f.KeyMarker})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].marker < found[j].marker })
	names := make([]string, len(found))
	for i, k := range found {
		names[i] = k.name
	}
	return names
}

func (s *schema) field(name string) (fieldDef, bool) {
	for _, f := range s.Fields {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			return f, true
		}
	}
	return fieldDef{}, false
}

// record holds one object's values keyed by canonical field name.
type record map[string]any

func (r record) clone() record {
	out := make(record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func cloneRecords(records []record) []record {
	out := make([]record, len(records))
	for i, r := range records {
		out[i] = r.clone()
	}
	return out
}

func zeroValue(t coerce.FieldType) any {
	switch t {
	case coerce.Integer:
		return int64(0)
	case coerce.Real:
		return float64(0)
	default:
		return ""
	}
}

var schemas = map[string]*schema{
	"bus": {
		ObjectType: "bus",
		Fields: []fieldDef{
			{Name: "BusNum", Type: coerce.Integer, KeyMarker: "*1*", Description: "Bus number", Display: "Number"},
			{Name: "BusName", Type: coerce.String, Description: "Bus name", Display: "Name"},
			{Name: "BusNomVolt", Type: coerce.Real, Description: "Nominal voltage (kV)", Display: "Nom kV"},
			{Name: "BusPUVolt", Type: coerce.Real, Description: "Per-unit voltage magnitude", Display: "PU Volt"},
			{Name: "BusAngle", Type: coerce.Real, Description: "Voltage angle (degrees)", Display: "Angle (Deg)"},
			{Name: "BusNetMW", Type: coerce.Real, Description: "Net real power injection (MW)", Display: "Net MW"},
			{Name: "BusNetMVR", Type: coerce.Real, Description: "Net reactive power injection (Mvar)", Display: "Net Mvar"},
		},
	},
	"gen": {
		ObjectType: "gen",
		Fields: []fieldDef{
			{Name: "BusNum", Type: coerce.Integer, KeyMarker: "*1*", Description: "Bus number", Display: "Number"},
			{Name: "GenID", Type: coerce.String, KeyMarker: "*2A*", Description: "Generator identifier", Display: "ID"},
			{Name: "GenMW", Type: coerce.Real, Description: "Real power output (MW)", Display: "Gen MW"},
			{Name: "GenMVR", Type: coerce.Real, Description: "Reactive power output (Mvar)", Display: "Gen Mvar"},
			{Name: "GenMWMax", Type: coerce.Real, Description: "Maximum real power output (MW)", Display: "Max MW"},
			{Name: "GenStatus", Type: coerce.String, Description: "In-service status", Display: "Status"},
		},
	},
	"load": {
		ObjectType: "load",
		Fields: []fieldDef{
			{Name: "BusNum", Type: coerce.Integer, KeyMarker: "*1*", Description: "Bus number", Display: "Number"},
			{Name: "LoadID", Type: coerce.String, KeyMarker: "*2A*", Description: "Load identifier", Display: "ID"},
			{Name: "LoadMW", Type: coerce.Real, Description: "Real power demand (MW)", Display: "Load MW"},
			{Name: "LoadMVR", Type: coerce.Real, Description: "Reactive power demand (Mvar)", Display: "Load Mvar"},
			{Name: "LoadStatus", Type: coerce.String, Description: "In-service status", Display: "Status"},
		},
	},
	"shunt": {
		ObjectType: "shunt",
		Fields: []fieldDef{
			{Name: "BusNum", Type: coerce.Integer, KeyMarker: "*1*", Description: "Bus number", Display: "Number"},
			{Name: "ShuntID", Type: coerce.String, KeyMarker: "*2A*", Description: "Shunt identifier", Display: "ID"},
			{Name: "ShuntMW", Type: coerce.Real, Description: "Real power (MW)", Display: "Shunt MW"},
			{Name: "ShuntMVR", Type: coerce.Real, Description: "Reactive power (Mvar)", Display: "Shunt Mvar"},
		},
	},
	"branch": {
		ObjectType: "branch",
		Fields: []fieldDef{
			{Name: "BusNum", Type: coerce.Integer, KeyMarker: "*1*", Description: "From bus number", Display: "From Number"},
			{Name: "BusNum:1", Type: coerce.Integer, KeyMarker: "*2*", Description: "To bus number", Display: "To Number"},
			{Name: "LineCircuit", Type: coerce.String, KeyMarker: "*3A*", Description: "Circuit identifier", Display: "Circuit"},
			{Name: "LineMW", Type: coerce.Real, Description: "Real power flow at the from end (MW)", Display: "MW From"},
			{Name: "LineMW:1", Type: coerce.Real, Description: "Real power flow at the to end (MW)", Display: "MW To"},
			{Name: "LineMVR", Type: coerce.Real, Description: "Reactive power flow at the from end (Mvar)", Display: "Mvar From"},
			{Name: "LineMVR:1", Type: coerce.Real, Description: "Reactive power flow at the to end (Mvar)", Display: "Mvar To"},
			{Name: "LineStatus", Type: coerce.String, Description: "In-service status", Display: "Status"},
		},
	},
}

// seedModel builds the built-in five-bus model.
func seedModel() map[string][]record {
	return map[string][]record{
		"bus": {
			{"BusNum": int64(1), "BusName": "Mill", "BusNomVolt": 138.0, "BusPUVolt": 1.0, "BusAngle": 0.0, "BusNetMW": 210.0, "BusNetMVR": 45.0},
			{"BusNum": int64(2), "BusName": "River", "BusNomVolt": 138.0, "BusPUVolt": 0.99, "BusAngle": -2.1, "BusNetMW": -120.0, "BusNetMVR": -40.0},
			{"BusNum": int64(3), "BusName": "Lake", "BusNomVolt": 138.0, "BusPUVolt": 1.01, "BusAngle": -1.4, "BusNetMW": 80.0, "BusNetMVR": 20.0},
			{"BusNum": int64(4), "BusName": "Hill", "BusNomVolt": 138.0, "BusPUVolt": 0.98, "BusAngle": -3.6, "BusNetMW": -90.0, "BusNetMVR": 0.0},
			{"BusNum": int64(5), "BusName": "Valley", "BusNomVolt": 138.0, "BusPUVolt": 0.97, "BusAngle": -4.2, "BusNetMW": -75.0, "BusNetMVR": -25.0},
		},
		"gen": {
			{"BusNum": int64(1), "GenID": "1", "GenMW": 210.0, "GenMVR": 45.0, "GenMWMax": 300.0, "GenStatus": "Closed"},
			{"BusNum": int64(3), "GenID": "1", "GenMW": 80.0, "GenMVR": 20.0, "GenMWMax": 120.0, "GenStatus": "Closed"},
		},
		"load": {
			{"BusNum": int64(2), "LoadID": "1", "LoadMW": 120.0, "LoadMVR": 40.0, "LoadStatus": "Closed"},
			{"BusNum": int64(4), "LoadID": "1", "LoadMW": 90.0, "LoadMVR": 30.0, "LoadStatus": "Closed"},
			{"BusNum": int64(5), "LoadID": "1", "LoadMW": 75.0, "LoadMVR": 25.0, "LoadStatus": "Closed"},
		},
		"shunt": {
			{"BusNum": int64(4), "ShuntID": "1", "ShuntMW": 0.0, "ShuntMVR": 30.0},
		},
		"branch": {
			{"BusNum": int64(1), "BusNum:1": int64(2), "LineCircuit": "1", "LineMW": 125.0, "LineMW:1": -123.8, "LineMVR": 28.0, "LineMVR:1": -26.5, "LineStatus": "Closed"},
			{"BusNum": int64(1), "BusNum:1": int64(5), "LineCircuit": "1", "LineMW": 85.0, "LineMW:1": -84.1, "LineMVR": 17.0, "LineMVR:1": -16.2, "LineStatus": "Closed"},
			{"BusNum": int64(2), "BusNum:1": int64(3), "LineCircuit": "1", "LineMW": 3.8, "LineMW:1": -3.8, "LineMVR": -13.5, "LineMVR:1": 13.6, "LineStatus": "Closed"},
			{"BusNum": int64(3), "BusNum:1": int64(4), "LineCircuit": "1", "LineMW": 76.2, "LineMW:1": -75.6, "LineMVR": 33.6, "LineMVR:1": -32.9, "LineStatus": "Closed"},
			{"BusNum": int64(4), "BusNum:1": int64(5), "LineCircuit": "1", "LineMW": -14.4, "LineMW:1": 9.1, "LineMVR": 2.9, "LineMVR:1": -8.8, "LineStatus": "Closed"},
		},
	}
}

func lookupSchema(objectType string) (*schema, bool) {
	s, ok := schemas[strings.ToLower(strings.TrimSpace(objectType))]
	return s, ok
}
