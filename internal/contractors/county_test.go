package contractors

import "testing"

func TestNormalizeCounty(t *testing.T) {
	cases := map[string]string{
		"Harris County":    "harris",
		"  harris  ":       "harris",
		"FORT BEND":        "fort bend",
		"Fort Bend County": "fort bend",
		"":                 "",
	}
	for in, want := range cases {
		if got := NormalizeCounty(in); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
}

func TestServesCountyAndJobType(t *testing.T) {
	list := []string{"Harris", "Fort Bend County"}
	if !ServesCounty(list, "harris county") || !ServesCounty(list, "Fort Bend") {
		t.Fatalf("expected county match")
	}
	if ServesCounty(list, "Galveston") || ServesCounty(list, "") {
		t.Fatalf("unexpected county match")
	}

	if !ServesJobType(nil, "opener_repair") {
		t.Fatalf("empty list must not filter")
	}
	if !ServesJobType([]string{"opener_repair"}, "") {
		t.Fatalf("lead without job type must not filter")
	}
	if ServesJobType([]string{"spring_replacement"}, "opener_repair") {
		t.Fatalf("mismatched job type must filter")
	}
}
