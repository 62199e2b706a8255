package hdf5

import "errors"

// SkipGroup may be returned by a WalkFunc. Returned for a group it skips
// the group's members; returned for a dataset it skips the remaining
// members of the dataset's group.
var SkipGroup = errors.New("skip this group")

// WalkFunc is called for each object during traversal. obj is a *Group or
// *Dataset; err reports a member that could not be opened, with obj nil.
type WalkFunc func(path string, obj any, err error) error

// Walk visits g and every object below it, depth first, groups before
// their members. Soft links are not followed.
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn)
	if errors.Is(err, SkipGroup) {
		return nil
	}
	return err
}

func walkGroup(g *Group, fn WalkFunc) error {
	if err := fn(g.path, g, nil); err != nil {
		return err
	}
	links, err := g.links()
	if err != nil {
		return fn(g.path, nil, err)
	}
	for _, l := range links {
		if l.softPath != "" || l.external {
			continue
		}
		obj, err := g.Open(l.name)
		if err != nil {
			if err := fn(JoinPath(g.path, l.name), nil, err); err != nil {
				return err
			}
			continue
		}
		switch o := obj.(type) {
		case *Group:
			if err := walkGroup(o, fn); err != nil && !errors.Is(err, SkipGroup) {
				return err
			}
		case *Dataset:
			if err := fn(o.path, o, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
