package archive

// discardContainer implements Container without touching disk: it accepts
// every add call and tracks the in-memory index so a duplicate member name
// is still rejected with ErrAlreadyExists as a real container would, but
// Close is a no-op. Used only for --dry-run (§8: dry-run purity).
type discardContainer struct {
	entries map[string]Record
}

func newDiscardContainer() *discardContainer {
	return &discardContainer{entries: make(map[string]Record)}
}

func (d *discardContainer) AddFileNew(name, _ string, meta Record) error {
	if _, ok := d.entries[name]; ok {
		return ErrAlreadyExists
	}
	meta.Type = TypeNew
	meta.Prev = ""
	d.entries[name] = meta
	return nil
}

func (d *discardContainer) AddFileBsdiff(name string, meta Record, _ []byte, prevName string) error {
	if _, ok := d.entries[name]; ok {
		return ErrAlreadyExists
	}
	meta.Type = TypeMod
	meta.Prev = prevName
	d.entries[name] = meta
	return nil
}

func (d *discardContainer) AddFileUnchanged(name string, meta Record, prevName string) error {
	if _, ok := d.entries[name]; ok {
		return ErrAlreadyExists
	}
	meta.Type = TypeUnc
	meta.Prev = prevName
	d.entries[name] = meta
	return nil
}

func (d *discardContainer) AddDirectory(name string, meta Record) error {
	if _, ok := d.entries[name]; ok {
		return ErrAlreadyExists
	}
	d.entries[name] = meta
	return nil
}

func (d *discardContainer) ExtractFile(name string) ([]byte, Record, error) {
	meta, ok := d.entries[name]
	if !ok {
		return nil, Record{}, ErrNotFound
	}
	return nil, meta, nil
}

func (d *discardContainer) Entries() map[string]Record {
	out := make(map[string]Record, len(d.entries))
	for k, v := range d.entries {
		out[k] = v
	}
	return out
}

func (d *discardContainer) Close() error { return nil }
