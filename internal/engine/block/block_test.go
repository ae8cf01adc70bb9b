package block

import (
	"strings"
	"testing"
)

const (
	prefix   = ";; "
	startPat = `#\+BEGIN_SRC emacs-lisp`
	endPat   = `#\+END_SRC`
)

func mustStrategy(t *testing.T, mode Mode) *Strategy {
	t.Helper()
	s, err := New(mode, prefix, startPat, endPat, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestCommentBasicBlock(t *testing.T) {
	s := mustStrategy(t, Comment)

	input := "prose line\n#+BEGIN_SRC emacs-lisp\n(foo)\n#+END_SRC\nmore prose"
	want := ";; prose line\n#+BEGIN_SRC emacs-lisp\n(foo)\n#+END_SRC\n;; more prose"

	got, err := s.Transform(input)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUncommentBasicBlock(t *testing.T) {
	s := mustStrategy(t, Uncomment)

	input := ";; prose line\n#+BEGIN_SRC emacs-lisp\n(foo)\n#+END_SRC\n;; more prose"
	want := "prose line\n#+BEGIN_SRC emacs-lisp\n(foo)\n#+END_SRC\nmore prose"

	got, err := s.Transform(input)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUncommentToleratesBareLines(t *testing.T) {
	s := mustStrategy(t, Uncomment)

	input := "already bare\n;; commented"
	want := "already bare\ncommented"

	got, err := s.Transform(input)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCommentEmptyLines(t *testing.T) {
	s := mustStrategy(t, Comment)

	got, err := s.Transform("first\n\nsecond")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	want := ";; first\n;; \n;; second"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUncommentTrimmedPrefixOnBlankLine(t *testing.T) {
	s := mustStrategy(t, Uncomment)

	// ";;" with no trailing space is how hand-edited files usually
	// comment a blank line.
	got, err := s.Transform(";; a\n;;\n;; b")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	want := "a\n\nb"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestLineCountInvariant(t *testing.T) {
	inputs := []string{
		"",
		"one",
		"a\nb\nc",
		"a\n#+BEGIN_SRC emacs-lisp\nb\n#+END_SRC\nc",
		"a\n#+BEGIN_SRC emacs-lisp\ndangling code",
		"trailing newline\n",
	}

	for _, mode := range []Mode{Comment, Uncomment} {
		s := mustStrategy(t, mode)
		for _, input := range inputs {
			got, err := s.Transform(input)
			if err != nil {
				t.Fatalf("%s: Transform(%q): %v", s.Name(), input, err)
			}
			if strings.Count(got, "\n") != strings.Count(input, "\n") {
				t.Errorf("%s: line count changed for %q: got %q", s.Name(), input, got)
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	comment := mustStrategy(t, Comment)
	uncomment := mustStrategy(t, Uncomment)

	inputs := []string{
		"prose\n#+BEGIN_SRC emacs-lisp\n(code)\n#+END_SRC\nmore",
		"prose\n\nmore prose",
		"#+BEGIN_SRC emacs-lisp\n(only code)\n#+END_SRC",
		"text with trailing newline\n",
	}

	for _, input := range inputs {
		commented, err := comment.Transform(input)
		if err != nil {
			t.Fatalf("comment: %v", err)
		}
		back, err := uncomment.Transform(commented)
		if err != nil {
			t.Fatalf("uncomment: %v", err)
		}
		if back != input {
			t.Errorf("comment/uncomment round trip failed:\ninput %q\nafter %q", input, back)
		}

		// And the other way, for text already in source form.
		bare, err := uncomment.Transform(input)
		if err != nil {
			t.Fatalf("uncomment: %v", err)
		}
		again, err := comment.Transform(bare)
		if err != nil {
			t.Fatalf("comment: %v", err)
		}
		unc, err := uncomment.Transform(again)
		if err != nil {
			t.Fatalf("uncomment: %v", err)
		}
		if unc != bare {
			t.Errorf("uncomment/comment round trip failed:\nbare %q\nafter %q", bare, unc)
		}
	}
}

func TestCodeRegionUntouched(t *testing.T) {
	s := mustStrategy(t, Uncomment)

	// The ";; inside" line sits in a code region and must keep its prefix.
	input := ";; prose\n#+BEGIN_SRC emacs-lisp\n;; inside\n#+END_SRC"
	got, err := s.Transform(input)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	want := "prose\n#+BEGIN_SRC emacs-lisp\n;; inside\n#+END_SRC"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestInvert(t *testing.T) {
	comment := mustStrategy(t, Comment)

	inv := comment.Invert()
	if inv.Name() != "uncomment-block" {
		t.Errorf("expected uncomment-block, got %s", inv.Name())
	}

	back := inv.Invert()
	if back.Name() != "comment-block" {
		t.Errorf("double inversion should restore comment-block, got %s", back.Name())
	}

	input := "prose\n#+BEGIN_SRC emacs-lisp\nx\n#+END_SRC"
	out, err := comment.Transform(input)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	restored, err := inv.Transform(out)
	if err != nil {
		t.Fatalf("inverse Transform: %v", err)
	}
	if restored != input {
		t.Errorf("inverse did not restore input: %q", restored)
	}
}
