package support

import "testing"

func TestColorHexAndName(t *testing.T) {
	c, err := Color("red", 1)
	if err != nil || c.R != 1 || c.G != 0 || c.B != 0 {
		t.Fatalf("red = %+v, err=%v", c, err)
	}
	hex, err := Color("#00FF00", 1)
	if err != nil || hex.G != 1 {
		t.Fatalf("#00FF00 = %+v, err=%v", hex, err)
	}
}

func TestColorNotFound(t *testing.T) {
	if _, err := Color("notarealcolor", 1); err == nil {
		t.Fatal("expected ColorNotFound error")
	}
}

func TestHSBPureRed(t *testing.T) {
	c := HSBColor(0, 1, 1, 1)
	if c.R < 0.99 || c.G > 0.01 || c.B > 0.01 {
		t.Fatalf("hsb(0,1,1) = %+v, want pure red", c)
	}
}

func TestResolveWorldUnitSynonyms(t *testing.T) {
	for _, name := range []string{"m", "metres", "Meters"} {
		if _, err := ResolveWorldUnit(name); err != nil {
			t.Fatalf("ResolveWorldUnit(%q) failed: %v", name, err)
		}
	}
	if _, err := ResolveWorldUnit("parsecs"); err == nil {
		t.Fatal("expected InvalidWorldUnits error for unknown unit")
	}
}

func TestRegexCacheEviction(t *testing.T) {
	c := NewRegexCache(2)
	c.Compile("a")
	c.Compile("b")
	c.Compile("c") // evicts "a"
	if c.Len() != 2 {
		t.Fatalf("cache len = %d, want 2", c.Len())
	}
}

func TestRegexCacheReusesCompiled(t *testing.T) {
	c := NewRegexCache(4)
	re1, _ := c.Compile("foo.*")
	re2, _ := c.Compile("foo.*")
	if re1 != re2 {
		t.Fatal("expected cached compile to return the same *regexp.Regexp")
	}
}
