package link

// Delimiter and marker conventions for the built-in link types.
const (
	LispPrefix      = ";; "
	LispSummary     = ";;; "
	LispHeading     = ";;;"
	ElStartPattern  = `#\+BEGIN_SRC emacs-lisp`
	CljStartPattern = `#\+BEGIN_SRC clojure`
	EndPattern      = `#\+END_SRC`
)

// NewOrgEl links an Org documentation buffer to its Emacs Lisp source
// form. Cloning comments prose regions.
func NewOrgEl(this, that string) *Configuration {
	return &Configuration{
		Name:         "org-el",
		This:         this,
		That:         that,
		Prefix:       LispPrefix,
		StartPattern: ElStartPattern,
		EndPattern:   EndPattern,
		Direction:    DocToSource,
	}
}

// NewElOrg links an Emacs Lisp source buffer to its Org documentation
// form. Cloning uncomments prose regions.
func NewElOrg(this, that string) *Configuration {
	return &Configuration{
		Name:         "el-org",
		This:         this,
		That:         that,
		Prefix:       LispPrefix,
		StartPattern: ElStartPattern,
		EndPattern:   EndPattern,
		Direction:    SourceToDoc,
	}
}

// NewClojureOrg links a Clojure source buffer to its Org documentation
// form. Delimiter matching is case-sensitive so a literal
// "#+begin_src clojure" in prose is not mistaken for a region marker.
func NewClojureOrg(this, that string) *Configuration {
	return &Configuration{
		Name:          "clojure-org",
		This:          this,
		That:          that,
		Prefix:        LispPrefix,
		StartPattern:  CljStartPattern,
		EndPattern:    EndPattern,
		CaseSensitive: true,
		Direction:     SourceToDoc,
	}
}

// NewOrgelOrg links an annotated ("orgel") Emacs Lisp buffer to its Org
// form: the block transform plus the summary and header rules.
func NewOrgelOrg(this, that string) *Configuration {
	return &Configuration{
		Name:          "orgel-org",
		This:          this,
		That:          that,
		Prefix:        LispPrefix,
		StartPattern:  ElStartPattern,
		EndPattern:    EndPattern,
		Direction:     SourceToDoc,
		Overlay:       true,
		SummaryMarker: LispSummary,
		HeaderPrefix:  LispHeading,
	}
}

// NewOrgOrgel links an Org documentation buffer to its annotated
// Emacs Lisp form.
func NewOrgOrgel(this, that string) *Configuration {
	return &Configuration{
		Name:          "org-orgel",
		This:          this,
		That:          that,
		Prefix:        LispPrefix,
		StartPattern:  ElStartPattern,
		EndPattern:    EndPattern,
		Direction:     DocToSource,
		Overlay:       true,
		SummaryMarker: LispSummary,
		HeaderPrefix:  LispHeading,
	}
}
