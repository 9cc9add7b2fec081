package graph

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
		wantOK   bool
		wantDesc string
		wantFile string
		wantLine int
	}{
		{
			name:     "Transform",
			err:      &TransformError{Description: "unexpected token", Filename: "/src/a.js", LineNumber: 3},
			wantKind: KindTransform,
			wantOK:   true,
			wantDesc: "unexpected token",
			wantFile: "/src/a.js",
			wantLine: 3,
		},
		{
			name:     "NotFound",
			err:      &NotFoundError{Description: "File /src/gone.js does not exist", Filename: "/src/gone.js"},
			wantKind: KindNotFound,
			wantOK:   true,
			wantDesc: "File /src/gone.js does not exist",
			wantFile: "/src/gone.js",
		},
		{
			name:     "UnableToResolve",
			err:      &UnableToResolveError{Description: `Unable to resolve module "left-pad"`, Filename: "/src/a.js", LineNumber: 1},
			wantKind: KindUnableToResolve,
			wantOK:   true,
			wantDesc: `Unable to resolve module "left-pad"`,
			wantFile: "/src/a.js",
			wantLine: 1,
		},
		{
			name:     "WrappedTransform",
			err:      fmt.Errorf("building snapshot: %w", &TransformError{Description: "bad", Filename: "/src/b.js", LineNumber: 9}),
			wantKind: KindTransform,
			wantOK:   true,
			wantDesc: "bad",
			wantFile: "/src/b.js",
			wantLine: 9,
		},
		{
			name:     "Unknown",
			err:      errors.New("disk on fire"),
			wantKind: KindInternal,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, desc, file, line, ok := Classify(tt.err)
			if kind != tt.wantKind || ok != tt.wantOK {
				t.Fatalf("Classify = (%s, %v), want (%s, %v)", kind, ok, tt.wantKind, tt.wantOK)
			}
			if desc != tt.wantDesc || file != tt.wantFile || line != tt.wantLine {
				t.Errorf("details = (%q, %q, %d), want (%q, %q, %d)", desc, file, line, tt.wantDesc, tt.wantFile, tt.wantLine)
			}
		})
	}
}

func TestResolutionSubsetSharesIdentity(t *testing.T) {
	res := &Resolution{EntryFile: "/src/a.js", Platform: "ios"}
	sub := res.Subset()
	if sub.EntryFile != res.EntryFile || sub.Platform != res.Platform {
		t.Error("subset lost resolution identity")
	}
	if len(sub.Dependencies) != 0 {
		t.Errorf("subset dependencies = %v", sub.Dependencies)
	}
}

func TestBundleEmpty(t *testing.T) {
	var b *Bundle
	if !b.Empty() {
		t.Error("nil bundle must be empty")
	}
	if !(&Bundle{}).Empty() {
		t.Error("zero bundle must be empty")
	}
	if (&Bundle{Modules: []BundleModule{{ID: "a"}}}).Empty() {
		t.Error("bundle with modules reported empty")
	}
}
