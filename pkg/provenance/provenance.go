// Package provenance provides field-level tracking of which origin supplied
// each value of a merged record.
package provenance

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/parcelmap/pkg/constants"
	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/records"
)

// Reasons recorded by the merger.
const (
	ReasonAuthority = "authoritative origin"
	ReasonGapFill   = "gap fill from secondary origin"
	ReasonIdentity  = "identity field kept from API"
)

// Provenance tracks the origin and history of a field value.
type Provenance struct {
	Origin        records.Origin `yaml:"origin" json:"origin"`                                     // Origin that provided the value
	Field         string         `yaml:"field" json:"field"`                                       // Field key
	Value         string         `yaml:"value" json:"value"`                                       // The selected value
	Timestamp     time.Time      `yaml:"timestamp" json:"timestamp"`                               // When the value was set
	Priority      int            `yaml:"priority,omitempty" json:"priority,omitempty"`             // Authority priority, 0 when none matched
	Reason        string         `yaml:"reason" json:"reason"`                                     // Reason for selecting this value
	PreviousValue string         `yaml:"previous_value,omitempty" json:"previous_value,omitempty"` // Value from the other origin, if any
}

// Map tracks provenance for multiple records.
type Map map[string][]Provenance // key is "recordID:field"

// Tracker manages provenance tracking during a merge.
type Tracker interface {
	// Track records provenance for a field
	Track(recordID string, field string, history Provenance)

	// FindByField retrieves provenance for a specific field
	FindByField(recordID string, field string) []Provenance

	// FindByRecord retrieves all provenance for a record
	FindByRecord(recordID string) map[string][]Provenance

	// Map returns the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

type tracker struct {
	mu         sync.RWMutex
	provenance Map
	enabled    bool
}

// NewTracker creates a new provenance tracker. A disabled tracker records nothing.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
	}
}

// Track records provenance for a field.
func (p *tracker) Track(recordID string, field string, history Provenance) {
	if !p.enabled {
		return
	}
	if history.Timestamp.IsZero() {
		history.Timestamp = time.Now()
	}
	if history.Field == "" {
		history.Field = field
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	key := makeKey(recordID, field)
	p.provenance[key] = append(p.provenance[key], history)
}

// FindByField retrieves provenance for a specific field.
func (p *tracker) FindByField(recordID string, field string) []Provenance {
	if !p.enabled {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Provenance(nil), p.provenance[makeKey(recordID, field)]...)
}

// FindByRecord retrieves all provenance for a record.
func (p *tracker) FindByRecord(recordID string) map[string][]Provenance {
	if !p.enabled {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make(map[string][]Provenance)
	prefix := recordID + ":"
	for key, info := range p.provenance {
		if field, found := strings.CutPrefix(key, prefix); found {
			result[field] = append([]Provenance(nil), info...)
		}
	}
	return result
}

// Map returns a copy of the complete provenance map.
func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make(Map, len(p.provenance))
	for k, v := range p.provenance {
		result[k] = append([]Provenance{}, v...)
	}
	return result
}

// Clear removes all provenance data.
func (p *tracker) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.provenance = make(Map)
}

// Field keys never contain ':', so the last separator splits the key.
func makeKey(recordID string, field string) string {
	return recordID + ":" + field
}

func splitKey(key string) (recordID, field string, ok bool) {
	i := strings.LastIndexByte(key, ':')
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// Report is a human-readable view of a provenance Map grouped by record.
type Report struct {
	Records map[string]RecordProvenance
}

// RecordProvenance contains provenance for a single record.
type RecordProvenance struct {
	ID     string
	Fields map[string]Field
}

// Field contains provenance history for a single field.
type Field struct {
	Current Provenance   // Current value and its origin
	History []Provenance // All values, newest first
}

// GenerateReport creates a provenance report from a Map.
func GenerateReport(provenance Map) *Report {
	report := &Report{Records: make(map[string]RecordProvenance)}

	for key, infos := range provenance {
		recordID, field, ok := splitKey(key)
		if !ok {
			continue
		}

		rec, exists := report.Records[recordID]
		if !exists {
			rec = RecordProvenance{ID: recordID, Fields: make(map[string]Field)}
		}

		history := append([]Provenance(nil), infos...)
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].Timestamp.After(history[j].Timestamp)
		})

		fp := Field{History: history}
		if len(history) > 0 {
			fp.Current = history[0]
		}
		rec.Fields[field] = fp
		report.Records[recordID] = rec
	}

	return report
}

// String renders the report with records and fields in sorted order.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	ids := make([]string, 0, len(r.Records))
	for id := range r.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rec := r.Records[id]
		sb.WriteString(rec.ID)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")

		fields := make([]string, 0, len(rec.Fields))
		for field := range rec.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			fp := rec.Fields[field]
			fmt.Fprintf(&sb, "  %s: %s (from %s, %s)\n",
				field, fp.Current.Value, fp.Current.Origin, fp.Current.Reason)
			if fp.Current.PreviousValue != "" {
				fmt.Fprintf(&sb, "    replaced: %s\n", fp.Current.PreviousValue)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// File represents a provenance file stored on disk.
type File struct {
	Provenance Map `yaml:"provenance"`
}

// Save writes the provenance map as YAML.
func Save(path string, m Map) error {
	data, err := yaml.MarshalWithOptions(File{Provenance: m}, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// Load reads provenance data from a YAML file.
// Returns nil, nil if the file doesn't exist (not an error).
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is caller supplied output location
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var pf File
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &pf, nil
}
