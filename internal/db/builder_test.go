package db

import (
	"strings"
	"testing"
)

func mustBuild(t *testing.T, b *IndexBuilder) *IndexDefinition {
	t.Helper()
	idx, err := b.Build()
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return idx
}

func TestIndexBuilder_ArticleSchema(t *testing.T) {
	idx := mustBuild(t, NewIndex("articles:idx").
		Prefix("articles:").
		Text("title").
		Text("content").
		Tag("doc_id").
		VectorHNSW("embedding", "vector", 384, DistanceCosine, 16, 200))

	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Fields) != 4 {
		t.Fatalf("fields count = %d, want 4", len(idx.Fields))
	}
	if idx.Fields[0].Name != "title" || idx.Fields[0].Type != IndexFieldText {
		t.Errorf("field[0] = %+v, want title TEXT", idx.Fields[0])
	}
	if idx.Fields[2].Name != "doc_id" || idx.Fields[2].Type != IndexFieldTag {
		t.Errorf("field[2] = %+v, want doc_id TAG", idx.Fields[2])
	}

	vf, ok := idx.VectorField()
	if !ok {
		t.Fatal("expected vector field")
	}
	if vf.Name != "embedding" || vf.QueryName() != "vector" {
		t.Errorf("vector field = %q as %q", vf.Name, vf.QueryName())
	}
	if vf.VectorAlgo != VectorHNSW || vf.VectorDim != 384 || vf.VectorDistance != DistanceCosine {
		t.Errorf("vector options = %+v", vf)
	}
	if vf.VectorM != 16 || vf.VectorEFConstruct != 200 {
		t.Errorf("HNSW params = M %d EF %d", vf.VectorM, vf.VectorEFConstruct)
	}
}

func TestIndexBuilder_VectorFlat(t *testing.T) {
	idx := mustBuild(t, NewIndex("vec-idx").VectorFlat("emb", "", 8, DistanceL2))

	f := idx.Fields[0]
	if f.VectorAlgo != VectorFlat {
		t.Errorf("algo = %q, want FLAT", f.VectorAlgo)
	}
	if f.QueryName() != "emb" {
		t.Errorf("query name = %q, want emb", f.QueryName())
	}
}

func TestIndexBuilder_BuildReturnsCopy(t *testing.T) {
	b := NewIndex("idx").Tag("a")
	first := mustBuild(t, b)
	b.Tag("b")
	if len(first.Fields) != 1 {
		t.Errorf("built definition mutated by builder: %d fields", len(first.Fields))
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *IndexBuilder
		wantErr string
	}{
		{"empty name", NewIndex("").Tag("x"), "index name is required"},
		{"no fields", NewIndex("idx"), "at least one field"},
		{"vector without dim", NewIndex("idx").VectorFlat("v", "", 0, DistanceCosine), "positive DIM"},
		{"invalid characters", NewIndex("idx with spaces").Tag("x"), "invalid characters"},
		{"duplicate alias", NewIndex("idx").Tag("vector").VectorFlat("v", "vector", 4, DistanceCosine), "duplicate"},
		{
			"two vectors",
			NewIndex("idx").VectorFlat("a", "", 4, DistanceCosine).VectorFlat("b", "", 4, DistanceCosine),
			"at most one vector",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := mustBuild(t, NewIndex("my-idx").
		Prefix("doc:").
		Tag("cat").
		VectorHNSW("embedding", "vector", 4, DistanceCosine, 0, 0))

	s := idx.String()
	want := "FT.CREATE my-idx ON HASH PREFIX doc: SCHEMA cat TAG embedding AS vector VECTOR HNSW"
	if s != want {
		t.Errorf("String() = %q, want %q", s, want)
	}
}

func TestIndexDefinition_Covers(t *testing.T) {
	idx := &IndexDefinition{Name: "i", Prefixes: []string{"a:", "b:"}}
	if !idx.Covers("a:1") || !idx.Covers("b:2") {
		t.Error("expected prefixed keys to be covered")
	}
	if idx.Covers("c:3") {
		t.Error("unexpected coverage of c:3")
	}
	if !(&IndexDefinition{Name: "all"}).Covers("anything") {
		t.Error("index without prefixes should cover every key")
	}
}

func TestVectorCodec_RoundTrip(t *testing.T) {
	in := []float32{1, -0.5, 0.25, 3.75}
	blob := EncodeVector(in)
	if len(blob) != 16 {
		t.Fatalf("blob length = %d, want 16", len(blob))
	}
	out := DecodeVector(blob)
	if len(out) != len(in) {
		t.Fatalf("decoded length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestDecodeVector_Malformed(t *testing.T) {
	if v := DecodeVector("abc"); v != nil {
		t.Errorf("expected nil for 3-byte blob, got %v", v)
	}
	if v := DecodeVector(""); v != nil {
		t.Errorf("expected nil for empty blob, got %v", v)
	}
}
