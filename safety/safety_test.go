package safety

import (
	"testing"

	"github.com/pumped-fn/reaxpr/value"
)

func TestCheckFieldDisallowed(t *testing.T) {
	for _, name := range []string{"constructor", "__proto__", "__defineGetter__"} {
		if err := CheckField(name); err == nil {
			t.Errorf("CheckField(%q) = nil, want error", name)
		}
	}
	if err := CheckField("foo"); err != nil {
		t.Errorf("CheckField(foo) = %v, want nil", err)
	}
}

func TestCheckCallNameDisallowed(t *testing.T) {
	for _, name := range []string{"call", "bind", "apply"} {
		if err := CheckCallName(name); err == nil {
			t.Errorf("CheckCallName(%q) = nil, want error", name)
		}
	}
}

func TestCheckValueGlobalHandle(t *testing.T) {
	self := value.NewMapping()
	self.Set("window", self)
	if err := CheckValue(self); err == nil {
		t.Error("expected error for self-referential window mapping")
	}
}

func TestCheckValueDOMLike(t *testing.T) {
	m := value.NewMapping()
	m = m.With("children", value.Sequence(nil))
	m = m.With("nodeName", value.String("DIV"))
	if err := CheckValue(m); err == nil {
		t.Error("expected error for DOM-like node")
	}
}

func TestCheckValueRootObject(t *testing.T) {
	m := value.NewMapping()
	m = m.With("__isRootObject__", value.Bool(true))
	if err := CheckValue(m); err == nil {
		t.Error("expected error for root Object")
	}
}

func TestCheckValueOrdinaryMappingAllowed(t *testing.T) {
	m := value.NewMapping()
	m = m.With("a", value.Number(1))
	if err := CheckValue(m); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
