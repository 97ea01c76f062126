package fast5

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-fast5/internal/store"
)

// globalKeyMembers are the read groups that live under UniqueGlobalKey in
// a single-read file.
var globalKeyMembers = map[string]bool{
	"channel_id":   true,
	"context_tags": true,
	"tracking_id":  true,
}

// WriteSingle writes r to a new single-read file at path, truncating any
// existing file. The Raw group moves to Raw/Reads/Read_<read_number> and
// the metadata groups to UniqueGlobalKey; everything else keeps its name.
// Stored data is copied without being decoded.
func (r *MultiRead) WriteSingle(path string) (err error) {
	if err := r.c.assertOpen(); err != nil {
		return err
	}
	src, err := r.root().Group(r.prefix)
	if err != nil {
		return fmt.Errorf("%s: %w", r.c.path, err)
	}
	members, err := src.Members()
	if err != nil {
		return err
	}

	out, err := OpenEmpty(path, ModeCreate)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	for _, sub := range members {
		dst := sub
		switch {
		case sub == "Raw":
			n, err := r.rawReadNumber(src)
			if err != nil {
				return err
			}
			dst = readGroupName(n)
		case globalKeyMembers[sub]:
			dst = globalKeyGroup + "/" + sub
		}
		obj, err := src.Object(sub)
		if err != nil {
			return err
		}
		if _, err := out.root().Copy(obj, dst); err != nil {
			return fmt.Errorf("copying %s of read %s to %s: %w", sub, r.readID, path, err)
		}
	}
	return nil
}

func (r *MultiRead) rawReadNumber(src *store.Group) (int64, error) {
	raw, err := src.Group("Raw")
	if err != nil {
		return 0, err
	}
	v, err := raw.AttrValue("read_number")
	if err != nil {
		return 0, fmt.Errorf("%w: raw group of read %s has no read_number", ErrFormat, r.readID)
	}
	return asInt(v)
}

// CopyTo writes the content of s to a single-read file at path, creating
// it if needed. Without options the copy is verbatim. With a target
// compression the raw signal is re-encoded when its filters differ, and
// with sanitizing the optional groups are left out.
func (s *SingleFile) CopyTo(path string, opts ...CopyOption) (err error) {
	if err := s.c.assertOpen(); err != nil {
		return err
	}
	o := copyOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	reencode, err := o.reencode(s)
	if err != nil {
		return err
	}
	srcRoot := s.root()
	members, err := srcRoot.Members()
	if err != nil {
		return err
	}

	out, err := OpenEmpty(path, ModeAppend)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()
	if err := out.root().CopyAttrs(srcRoot); err != nil {
		return err
	}

	for _, sub := range members {
		if o.sanitize && OptionalReadGroups[sub] {
			continue
		}
		if sub == "Raw" && reencode {
			if err := s.copyRawGroup(out, o.target); err != nil {
				return err
			}
			continue
		}
		obj, err := srcRoot.Object(sub)
		if err != nil {
			return err
		}
		if _, err := out.root().Copy(obj, sub); err != nil {
			return fmt.Errorf("copying %s to %s: %w", sub, path, err)
		}
	}
	return nil
}

// copyRawGroup recreates Raw/Reads/Read_<n> in out with the signal
// re-encoded as c.
func (s *SingleFile) copyRawGroup(out *SingleFile, c Compression) error {
	if err := reencodeInto(s, out.readFor(s.onlyReadNumber()), c); err != nil {
		return fmt.Errorf("re-encoding raw data of %s: %w", s.c.path, err)
	}
	return nil
}
