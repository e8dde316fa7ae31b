package fonts

import "testing"

func TestLoadAcceptsPrefixes(t *testing.T) {
	for _, name := range []string{"goregular", "builtin:goregular", "built-in:GoRegular", "embed:goregular"} {
		data, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%q): %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("Load(%q) returned no data", name)
		}
	}
	if _, err := Load("builtin:comic"); err == nil {
		t.Fatalf("expected unknown font to fail")
	}
}

func TestLoadFamily(t *testing.T) {
	fam, err := LoadFamily("builtin:goregular")
	if err != nil {
		t.Fatalf("LoadFamily: %v", err)
	}
	if fam.Regular == nil || fam.Bold == nil || fam.Italic == nil || fam.BoldItalic == nil {
		t.Fatalf("goregular should carry all four faces")
	}
	single, err := LoadFamily("gobolditalic")
	if err != nil {
		t.Fatalf("LoadFamily: %v", err)
	}
	if single.Regular == nil || single.Bold != nil {
		t.Fatalf("single font should only set Regular: %+v", single)
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
	if !IsBuiltin("builtin:gomono") || IsBuiltin("fonts/a.ttf") {
		t.Fatalf("IsBuiltin misclassified sources")
	}
}
