package evaluator

import "testing"

func TestValueCoercions(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		integer int64
		text    string
	}{
		{"integer", &Integer{Value: -42}, -42, "-42"},
		{"numeric text", &Text{Value: "17"}, 17, "17"},
		{"signed text", &Text{Value: "+8"}, 8, "+8"},
		{"padded text is not numeric", &Text{Value: " 5"}, 0, " 5"},
		{"word text", &Text{Value: "hello"}, 0, "hello"},
		{"empty list", &List{Elements: []Value{}}, 0, "[]"},
		{
			name:    "mixed list",
			value:   &List{Elements: []Value{&Integer{Value: 1}, &Text{Value: "2"}, &Text{Value: "x"}}},
			integer: 3,
			text:    "[1,2,x]",
		},
		{
			name: "nested list",
			value: &List{Elements: []Value{
				&Integer{Value: 1},
				&List{Elements: []Value{&Integer{Value: 2}, &Integer{Value: 3}}},
			}},
			integer: 6,
			text:    "[1,[2,3]]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.AsInteger(); got != tt.integer {
				t.Errorf("AsInteger() = %d, want %d", got, tt.integer)
			}
			if got := tt.value.AsText(); got != tt.text {
				t.Errorf("AsText() = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestCopyValueIsDeep(t *testing.T) {
	inner := &List{Elements: []Value{&Integer{Value: 1}}}
	orig := &List{Elements: []Value{inner}}

	cp := CopyValue(orig).(*List)
	cp.Elements[0].(*List).Elements[0] = &Integer{Value: 99}

	if inner.Elements[0].AsInteger() != 1 {
		t.Errorf("copy shares storage with original: %s", orig.AsText())
	}
}

func TestInspect(t *testing.T) {
	v := &List{Elements: []Value{&Integer{Value: 1}, &Text{Value: "a"}}}
	if got := v.Inspect(); got != `,[1,"a"]` {
		t.Errorf("Inspect() = %q", got)
	}
	if got := TypeName(v); got != "list" {
		t.Errorf("TypeName() = %q", got)
	}
}

func TestEnvironmentDefaults(t *testing.T) {
	env := NewEnvironment()

	if got := env.Get("missing"); got.Type() != INTEGER_VAL || got.AsInteger() != 0 {
		t.Errorf("unbound Get() = %s %s, want INTEGER 0", got.Type(), got.Inspect())
	}
	if _, ok := env.Lookup("missing"); ok {
		t.Errorf("Lookup() of unbound name reported ok")
	}

	env.Set("L", &List{Elements: []Value{&Integer{Value: 1}}})
	got := env.Get("L").(*List)
	got.Elements = append(got.Elements, &Integer{Value: 2})
	if env.Get("L").AsText() != "[1]" {
		t.Errorf("Get() returned shared storage: %s", env.Get("L").AsText())
	}

	env.Set("b", &Integer{Value: 2})
	names := env.Names()
	if len(names) != 2 || names[0] != "L" || names[1] != "b" || env.Len() != 2 {
		t.Errorf("Names() = %v", names)
	}
}
