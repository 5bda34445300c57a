package rules

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadTables reads per-room rule tables from a JSON file. The top-level
// object is keyed by room id:
//
//	{
//	  "2": {
//	    "5050": {"function": "timeout", "states": {...}},
//	    "5350": {"function": "command", "commands": {...}}
//	  }
//	}
//
// Every table is validated before the map is returned, so a single malformed
// rule rejects the whole file.
func LoadTables(path string) (map[int]Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var tables map[int]Table
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	for roomID, table := range tables {
		if err := ValidateTable(table); err != nil {
			return nil, fmt.Errorf("rules file %s room %d: %w", path, roomID, err)
		}
	}
	return tables, nil
}
