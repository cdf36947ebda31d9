// Package plan defines the floor-plan entities (walls, lines, polylines)
// and IFC-style elements that room detection and clash checking consume.
// A Plan is produced fresh by each script evaluation and is not mutated
// afterwards.
package plan
