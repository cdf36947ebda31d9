package ifc

import "testing"

func TestIsA(t *testing.T) {
	tests := []struct {
		typ, want string
		match     bool
	}{
		{"IfcWall", "IfcWall", true},
		{"IFCWALLSTANDARDCASE", "IfcWall", true},
		{"IfcWall", "IfcWallStandardCase", false},
		{"IfcWallStandardCase", "IfcBuildingElement", true},
		{"IfcPipeSegment", "IfcFlowSegment", true},
		{"IfcDuctSegment", "IfcPipeSegment", false},
		{"IfcBeam", "IfcColumn", false},
		{"IfcCustomThing", "IfcCustomThing", true},
		{"IfcCustomThing", "IfcElement", false},
		{"", "IfcWall", false},
		{"IfcWall", "", false},
		{"  ifcslab ", "IFCSLAB", true},
	}
	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.want, func(t *testing.T) {
			if got := IsA(tt.typ, tt.want); got != tt.match {
				t.Errorf("IsA(%q, %q) = %v, want %v", tt.typ, tt.want, got, tt.match)
			}
		})
	}
}

func TestIsAny(t *testing.T) {
	wants := []string{"IfcBeam", "IfcColumn"}
	if !IsAny("IfcBeamStandardCase", wants) {
		t.Error("IfcBeamStandardCase should match IfcBeam")
	}
	if IsAny("IfcSlab", wants) {
		t.Error("IfcSlab should not match beam/column")
	}
	if IsAny("IfcBeam", nil) {
		t.Error("empty filter list should match nothing")
	}
}

func TestSupertypeAndKnown(t *testing.T) {
	if got := Supertype("ifcwallstandardcase"); got != "IFCWALL" {
		t.Errorf("Supertype = %q, want IFCWALL", got)
	}
	if !Known("IfcElement") {
		t.Error("IfcElement should be known as a supertype")
	}
	if Known("IfcNothing") {
		t.Error("IfcNothing should be unknown")
	}
}
