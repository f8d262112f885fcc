package plumbing

import "testing"

func TestObjectTypeString(t *testing.T) {
	cases := map[ObjectType]string{
		CommitObject:      "commit",
		TreeObject:        "tree",
		BlobObject:        "blob",
		TagObject:         "tag",
		OffsetDeltaObject: "ofs-delta",
		RefDeltaObject:    "ref-delta",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", typ, got, want)
		}
	}
}

func TestParseObjectTypeRoundTrip(t *testing.T) {
	for _, typ := range []ObjectType{CommitObject, TreeObject, BlobObject, TagObject} {
		got, err := ParseObjectType(typ.String())
		if err != nil {
			t.Fatalf("ParseObjectType(%q): %v", typ, err)
		}
		if got != typ {
			t.Errorf("ParseObjectType(%q) = %v, want %v", typ, got, typ)
		}
	}
}

func TestParseObjectTypeInvalid(t *testing.T) {
	if _, err := ParseObjectType("bogus"); err != ErrInvalidType {
		t.Fatalf("err = %v, want ErrInvalidType", err)
	}
}

func TestObjectTypeValid(t *testing.T) {
	if !BlobObject.Valid() {
		t.Errorf("BlobObject should be valid")
	}
	if OffsetDeltaObject.Valid() {
		t.Errorf("OffsetDeltaObject should not be a storable kind")
	}
	if InvalidObject.Valid() {
		t.Errorf("InvalidObject should not be valid")
	}
}
