package identity

import "testing"

func TestKey_CaseInsensitive(t *testing.T) {
	a := Character{Name: "Thrall", Realm: "Kazzak"}
	b := Character{Name: "tHRALL", Realm: "KAZZAK"}
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}
}

func TestKey_AccentFold(t *testing.T) {
	a := Character{Name: "Ágnes", Realm: "Twisting Nether"}
	b := Character{Name: "agnes", Realm: "twisting nether"}
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}
}

func TestKey_RealmSpacesBecomeDashes(t *testing.T) {
	c := Character{Name: "Sylvanas", Realm: "Twisting Nether"}
	if got, want := c.Key(), "twisting-nether/sylvanas"; got != want {
		t.Fatalf("Key() = %q, want %q", got, want)
	}
}

func TestEqual(t *testing.T) {
	a := Character{Name: "Jaina", Realm: "Draenor"}
	b := Character{Name: "JAINA", Realm: "draenor"}
	if !a.Equal(b) {
		t.Fatalf("expected %v equal to %v", a, b)
	}
	c := Character{Name: "Jaina", Realm: "Ragnaros"}
	if a.Equal(c) {
		t.Fatalf("distinct realms must not compare equal")
	}
}

func TestValid(t *testing.T) {
	if (Character{Name: "  ", Realm: "Kazzak"}).Valid() {
		t.Fatalf("blank name must be invalid")
	}
	if (Character{Name: "Thrall", Realm: ""}).Valid() {
		t.Fatalf("empty realm must be invalid")
	}
	if !(Character{Name: "Thrall", Realm: "Kazzak"}).Valid() {
		t.Fatalf("expected valid identity")
	}
}
