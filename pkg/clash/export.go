package clash

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"id", "rule_id", "rule_name", "severity", "status",
	"a_model", "a_express_id", "a_type", "a_name",
	"b_model", "b_express_id", "b_type", "b_name",
	"x", "y", "z", "volume", "distance", "tolerance",
	"note", "created_at", "updated_at",
}

// WriteCSV writes clashes as CSV with a header row.
func WriteCSV(w io.Writer, clashes []Clash) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("clash: write csv header: %w", err)
	}
	for _, c := range clashes {
		row := []string{
			c.ID, c.RuleID, c.RuleName, string(c.Severity), string(c.Status),
			c.ElementA.ModelID, strconv.Itoa(c.ElementA.ExpressID), c.ElementA.Type, c.ElementA.Name,
			c.ElementB.ModelID, strconv.Itoa(c.ElementB.ExpressID), c.ElementB.Type, c.ElementB.Name,
			formatFloat(c.Point.X), formatFloat(c.Point.Y), formatFloat(c.Point.Z),
			formatFloat(c.Volume), formatFloat(c.Distance), formatFloat(c.Tolerance),
			c.Note, c.CreatedAt.UTC().Format(time.RFC3339), c.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("clash: write csv row %s: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BCFDocument is a BCF-style issue list, one topic per clash.
type BCFDocument struct {
	Version string     `json:"version"`
	Topics  []BCFTopic `json:"topics"`
}

// BCFTopic describes one clash as a coordination issue.
type BCFTopic struct {
	GUID         string         `json:"guid"`
	Title        string         `json:"title"`
	TopicType    string         `json:"topic_type"`
	TopicStatus  string         `json:"topic_status"`
	Priority     string         `json:"priority"`
	Description  string         `json:"description,omitempty"`
	Labels       []string       `json:"labels"`
	CreationDate string         `json:"creation_date"`
	ModifiedDate string         `json:"modified_date"`
	Components   []BCFComponent `json:"components"`
	Viewpoint    BCFViewpoint   `json:"viewpoint"`
}

// BCFComponent points at one element of a clash.
type BCFComponent struct {
	OriginatingSystem string `json:"originating_system"`
	AuthoringToolID   string `json:"authoring_tool_id"`
	IfcType           string `json:"ifc_type"`
}

// BCFViewpoint centres the camera target on the clash point.
type BCFViewpoint struct {
	Target [3]float64 `json:"target"`
}

const bcfVersion = "2.1"

// BCF converts clashes to a BCF-style document.
func BCF(clashes []Clash) BCFDocument {
	doc := BCFDocument{Version: bcfVersion, Topics: make([]BCFTopic, 0, len(clashes))}
	for _, c := range clashes {
		doc.Topics = append(doc.Topics, BCFTopic{
			GUID:         c.ID,
			Title:        fmt.Sprintf("%s: %s vs %s", c.RuleName, c.ElementA.Type, c.ElementB.Type),
			TopicType:    "Clash",
			TopicStatus:  string(c.Status),
			Priority:     string(c.Severity),
			Description:  c.Note,
			Labels:       []string{c.RuleID},
			CreationDate: c.CreatedAt.UTC().Format(time.RFC3339),
			ModifiedDate: c.UpdatedAt.UTC().Format(time.RFC3339),
			Components:   []BCFComponent{bcfComponent(c.ElementA), bcfComponent(c.ElementB)},
			Viewpoint:    BCFViewpoint{Target: [3]float64{c.Point.X, c.Point.Y, c.Point.Z}},
		})
	}
	return doc
}

func bcfComponent(r ElementRef) BCFComponent {
	return BCFComponent{
		OriginatingSystem: r.ModelID,
		AuthoringToolID:   strconv.Itoa(r.ExpressID),
		IfcType:           r.Type,
	}
}

// WriteBCF writes clashes as indented BCF-style JSON.
func WriteBCF(w io.Writer, clashes []Clash) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BCF(clashes)); err != nil {
		return fmt.Errorf("clash: write bcf: %w", err)
	}
	return nil
}
