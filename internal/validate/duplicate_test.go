package validate

import (
	"testing"

	"github.com/ppiankov/verifier/internal/model"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://News.Site/a/b/?utm_source=x#top", "https://news.site/a/b"},
		{"https://news.site:443/a", "https://news.site/a"},
		{"http://news.site:80/a/", "http://news.site/a"},
		{"http://news.site:8080/a", "http://news.site:8080/a"},
		{"https://user:pw@news.site/a", "https://news.site/a"},
		{"https://bücher.example/katalog", "https://xn--bcher-kva.example/katalog"},
		{"https://news.site/", "https://news.site"},
		{"  not a url  ", "not a url"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Mayor  Announces   NEW Budget!  ", "mayor announces new budget"},
		{"Ｆｕｌｌｗｉｄｔｈ Title", "fullwidth title"},
		{"STRASSE — “Quoted”", "strasse quoted"},
		{"???", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitleSimilarity(t *testing.T) {
	if s := TitleSimilarity("", ""); s != 0 {
		t.Errorf("empty titles must never match, got %v", s)
	}
	if s := TitleSimilarity("abc", "abc"); s != 1 {
		t.Errorf("identical titles must be 1, got %v", s)
	}
	a := NormalizeTitle("City council approves the 2026 transit budget plan")
	b := NormalizeTitle("City council approves the 2026 transit budget plans")
	if s := TitleSimilarity(a, b); s < 0.95 {
		t.Errorf("expected near-identical titles to be >= 0.95, got %v", s)
	}
	if TitleSimilarity(a, b) != TitleSimilarity(b, a) {
		t.Error("similarity must be symmetric")
	}
	c := NormalizeTitle("Transit strike ends after two weeks")
	if s := TitleSimilarity(a, c); s >= 0.95 {
		t.Errorf("expected unrelated titles to be dissimilar, got %v", s)
	}
}

func TestDuplicateSet_Admit(t *testing.T) {
	detector := NewDuplicateDetector(0.95)

	first := model.Record{ID: "r1", Title: "Mayor opens new library", SourceURL: model.StringPtr("https://news.site/library?ref=home")}
	sameURL := model.Record{ID: "r2", Title: "Completely different headline", SourceURL: model.StringPtr("https://NEWS.site/library/")}
	sameTitle := model.Record{ID: "r3", Title: "Mayor opens new library!", SourceURL: model.StringPtr("https://other.site/x")}
	noURL := model.Record{ID: "r4", Title: "Mayor Opens New Library"}
	distinct := model.Record{ID: "r5", Title: "Library budget cut", SourceURL: model.StringPtr("https://news.site/cuts")}
	emptyTitle := model.Record{ID: "r6", Title: "!!!"}
	emptyTitle2 := model.Record{ID: "r7", Title: "..."}

	set := detector.NewSet()
	if _, dup := set.Admit(first); dup {
		t.Fatal("first record can never be a duplicate")
	}

	tests := []struct {
		rec model.Record
		dup bool
	}{
		{sameURL, true},
		{sameTitle, true},
		{noURL, true},
		{distinct, false},
		{emptyTitle, false},
		{emptyTitle2, false},
	}
	for _, tt := range tests {
		detail, dup := set.Admit(tt.rec)
		if dup != tt.dup {
			t.Errorf("%s: expected duplicate=%v, got %v (%s)", tt.rec.ID, tt.dup, dup, detail)
		}
		if dup && detail == "" {
			t.Errorf("%s: expected a detail naming the original", tt.rec.ID)
		}
	}

	if set.Len() != 4 {
		t.Errorf("expected 4 accepted records, got %d", set.Len())
	}
}

func TestDuplicateDetector_Deterministic(t *testing.T) {
	detector := NewDuplicateDetector(0.95)
	a := model.Record{ID: "a", Title: "Same story", SourceURL: model.StringPtr("https://news.site/s")}
	b := model.Record{ID: "b", Title: "Same story"}

	for i := 0; i < 3; i++ {
		set := detector.NewSet()
		set.Admit(a)
		if _, dup := set.Admit(b); !dup {
			t.Fatal("expected the later record to be the duplicate on every run")
		}
	}

	reversed := detector.NewSet()
	reversed.Admit(b)
	if _, dup := reversed.Admit(a); !dup {
		t.Error("expected duplicate detection to be symmetric in which pair it flags")
	}
}
