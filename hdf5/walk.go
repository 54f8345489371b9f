package hdf5

import "errors"

// WalkFunc is called for each object during traversal. obj is a *Group or
// *Dataset and is closed after the call returns; err is the error from
// opening the object, in which case obj is nil.
// Return nil to continue walking, SkipGroup to skip a group's members, or
// any other error to stop.
type WalkFunc func(path string, obj Object, err error) error

// SkipGroup can be returned from a WalkFunc called for a group to skip its
// members.
var SkipGroup = errors.New("skip this group")

// ErrStopWalk can be returned from a WalkFunc to stop walking without
// Walk reporting an error.
var ErrStopWalk = errors.New("walk stopped")

// Walk traverses the hierarchy under g depth first, in creation order,
// calling fn for g itself and every group and dataset below it.
//
// Example:
//
//	hdf5.Walk(f.Root(), func(path string, obj hdf5.Object, err error) error {
//	    if err != nil {
//	        return err
//	    }
//	    if ds, ok := obj.(*hdf5.Dataset); ok {
//	        space, _ := ds.Space()
//	        fmt.Println(path, space)
//	    }
//	    return nil
//	})
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn)
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

func walkGroup(g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g, nil); err != nil {
		if err == SkipGroup {
			return nil
		}
		return err
	}
	members, err := g.Members()
	if err != nil {
		return err
	}
	for _, name := range members {
		obj, err := g.OpenObject(name)
		if err != nil {
			if err := fn(joinPath(g.Path(), name), nil, err); err != nil && err != SkipGroup {
				return err
			}
			continue
		}
		switch o := obj.(type) {
		case *Group:
			err = walkGroup(o, fn)
		default:
			err = fn(o.Path(), o, nil)
			if err == SkipGroup {
				err = nil
			}
		}
		obj.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
