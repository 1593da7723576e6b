package database

// SourceRepository manages the registry of feed endpoints.
type SourceRepository interface {
	Add(name, feedURL string) error
	Remove(name string) (bool, error)
	List() ([]Source, error)
	Count() (int, error)
}

// LedgerRepository holds the set of article URLs already delivered.
// URLs are only ever added; the set survives process restarts.
type LedgerRepository interface {
	LoadAll() (map[string]struct{}, error)
	AddURLs(urls []string) error
	Count() (int, error)
}

// BanTermRepository manages the operator-extensible list of banned terms.
type BanTermRepository interface {
	Add(term string) error
	Remove(term string) (bool, error)
	List() ([]string, error)
	Count() (int, error)
}
