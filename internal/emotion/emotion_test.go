package emotion

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Key
		wantErr error
	}{
		{name: "lowercase", raw: "happy", want: Happy},
		{name: "uppercase", raw: "HAPPY", want: Happy},
		{name: "mixed case with spaces", raw: "  Relaxed ", want: Relaxed},
		{name: "energetic", raw: "energetic", want: Energetic},
		{name: "unknown", raw: "bored", wantErr: ErrUnknownEmotion},
		{name: "empty", raw: "", wantErr: ErrUnknownEmotion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTablesCoverAllKeys(t *testing.T) {
	for _, k := range All {
		if !k.Valid() {
			t.Errorf("%q not valid", k)
		}
		if id, ok := CatalogID(k); !ok || id == "" {
			t.Errorf("CatalogID(%q) = %q, %v", k, id, ok)
		}
		if len(Genres(k)) == 0 {
			t.Errorf("Genres(%q) is empty", k)
		}
	}
}

func TestGenresReturnsCopy(t *testing.T) {
	g := Genres(Happy)
	g[0] = "polka"

	if Genres(Happy)[0] != "dance" {
		t.Error("Genres() exposed the underlying table")
	}
}

func TestTitle(t *testing.T) {
	if got := Sad.Title(); got != "Sad" {
		t.Errorf("Title() = %q, want %q", got, "Sad")
	}
}
