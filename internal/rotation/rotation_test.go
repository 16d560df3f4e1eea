package rotation

import (
	"testing"

	"github.com/pawhaus/signage/internal/models"
)

func slide(id string, typ models.SlideType, priority int) models.Slide {
	return models.Slide{ID: id, Type: typ, Priority: priority, DurationSeconds: 10, IsActive: true}
}

func TestBuildEmptyInput(t *testing.T) {
	if got := Build(nil, models.SlideTypeSocial, 5, nil); len(got) != 0 {
		t.Errorf("empty input must yield empty rotation, got %d slides", len(got))
	}
}

func TestBuildOnlyFrequencySlides(t *testing.T) {
	in := []models.Slide{slide("f1", models.SlideTypeSocial, 1)}
	got := Build(in, models.SlideTypeSocial, 5, nil)
	if len(got) != 1 || got[0].ID != "f1" {
		t.Errorf("frequency-only input must yield the frequency slides, got %v", got)
	}
}

func TestBuildNoAdjacentDuplicates(t *testing.T) {
	in := []models.Slide{
		slide("a", models.SlideTypePromo, 10),
		slide("b", models.SlideTypeEvent, 1),
		slide("c", models.SlideTypeMenu, 3),
	}
	for i := 0; i < 200; i++ {
		seq := Build(in, models.SlideTypeSocial, 5, nil)
		for j := 1; j < len(seq); j++ {
			if seq[j].ID == seq[j-1].ID {
				t.Fatalf("run %d: adjacent duplicate %q at position %d", i, seq[j].ID, j)
			}
		}
	}
}

func TestBuildWeightProportionality(t *testing.T) {
	in := []models.Slide{
		slide("heavy", models.SlideTypePromo, 8),
		slide("light", models.SlideTypeEvent, 1),
		slide("mid", models.SlideTypeMenu, 4),
	}
	counts := map[string]int{}
	total := 0
	for i := 0; i < 500; i++ {
		for _, s := range Build(in, models.SlideTypeSocial, 5, nil) {
			counts[s.ID]++
			total++
		}
	}
	// The adjacent-dedup pass trims some high-priority copies, so compare
	// with a generous tolerance rather than exact ratios.
	if counts["heavy"] <= counts["mid"] || counts["mid"] <= counts["light"] {
		t.Errorf("frequency order must follow priority: heavy=%d mid=%d light=%d",
			counts["heavy"], counts["mid"], counts["light"])
	}
	heavyShare := float64(counts["heavy"]) / float64(total)
	if heavyShare < 0.40 || heavyShare > 0.75 {
		t.Errorf("heavy slide share %f outside expected band for priority 8/13", heavyShare)
	}
}

func TestBuildFrequencyInjection(t *testing.T) {
	in := []models.Slide{
		slide("social", models.SlideTypeSocial, 1),
		slide("a", models.SlideTypePromo, 3),
		slide("b", models.SlideTypeEvent, 3),
		slide("c", models.SlideTypeMenu, 3),
		slide("d", models.SlideTypeGallery, 3),
	}
	const freqN = 5
	for i := 0; i < 100; i++ {
		seq := Build(in, models.SlideTypeSocial, freqN, nil)
		if len(seq) < freqN {
			continue
		}
		found := false
		gap := 0
		for _, s := range seq {
			if s.Type == models.SlideTypeSocial {
				found = true
				gap = 0
				continue
			}
			gap++
			if gap > freqN {
				t.Fatalf("run %d: gap between frequency slides exceeds %d", i, freqN)
			}
		}
		if !found {
			t.Fatalf("run %d: rotation of length %d contains no frequency-type slide", i, len(seq))
		}
	}
}

func TestBuildFrequencyAppearsAtLeastOnceInShortRotation(t *testing.T) {
	in := []models.Slide{
		slide("social", models.SlideTypeSocial, 1),
		slide("a", models.SlideTypePromo, 1),
	}
	// One regular slide, freqN=5: merged sequence is shorter than freqN, so
	// the injection loop never fires and the append-once rule must kick in.
	seq := Build(in, models.SlideTypeSocial, 5, nil)
	count := 0
	for _, s := range seq {
		if s.Type == models.SlideTypeSocial {
			count++
		}
	}
	if count == 0 {
		t.Error("frequency slide must appear at least once when content exists")
	}
}

func TestBuildDynamicInterleave(t *testing.T) {
	var regular []models.Slide
	for _, id := range []string{"r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8"} {
		regular = append(regular, slide(id, models.SlideTypePromo, 1))
	}
	dynamic := []models.Slide{
		slide("cat1", models.SlideTypeAdoption, 1),
		slide("cat2", models.SlideTypeAdoption, 1),
	}
	seq := Build(regular, models.SlideTypeSocial, 5, dynamic)

	dynCount := 0
	for _, s := range seq {
		if s.Type == models.SlideTypeAdoption {
			dynCount++
		}
	}
	if dynCount != len(dynamic) {
		t.Errorf("all dynamic slides must appear exactly once, got %d of %d", dynCount, len(dynamic))
	}
}

func TestBuildDynamicOnly(t *testing.T) {
	dynamic := []models.Slide{
		slide("cat1", models.SlideTypeAdoption, 1),
		slide("cat2", models.SlideTypeAdoption, 1),
	}
	seq := Build(nil, models.SlideTypeSocial, 5, dynamic)
	if len(seq) != 2 {
		t.Errorf("empty regular set must yield the dynamic sequence alone, got %d slides", len(seq))
	}
}

func TestKeyStructural(t *testing.T) {
	a := []models.Slide{slide("a", models.SlideTypePromo, 2), slide("b", models.SlideTypeEvent, 1)}
	b := []models.Slide{slide("b", models.SlideTypeEvent, 1), slide("a", models.SlideTypePromo, 2)}
	if Key(a) != Key(b) {
		t.Error("key must be order-independent")
	}
	c := []models.Slide{slide("a", models.SlideTypePromo, 3), slide("b", models.SlideTypeEvent, 1)}
	if Key(a) == Key(c) {
		t.Error("key must change when a priority changes")
	}
	if Key(a) == Key(a[:1]) {
		t.Error("key must change when membership changes")
	}
}
