package palette

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseScan decodes a scan result. Both a bare scan object and the array
// form returned by script injection (whose first element is the scan) are
// accepted.
func ParseScan(data []byte) (*Scan, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty scan result")
	}

	if data[0] == '[' {
		var results []Scan
		if err := json.Unmarshal(data, &results); err != nil {
			return nil, fmt.Errorf("failed to parse scan result: %w", err)
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("scan result array is empty")
		}
		return normalise(&results[0]), nil
	}

	var scan Scan
	if err := json.Unmarshal(data, &scan); err != nil {
		return nil, fmt.Errorf("failed to parse scan result: %w", err)
	}
	return normalise(&scan), nil
}

func normalise(s *Scan) *Scan {
	if s.Colors == nil {
		s.Colors = []Element{}
	}
	return s
}

// Clone returns a deep copy of the scan.
func (s *Scan) Clone() *Scan {
	if s == nil {
		return nil
	}
	out := &Scan{Website: s.Website, Colors: make([]Element, len(s.Colors))}
	copy(out.Colors, s.Colors)
	return out
}
