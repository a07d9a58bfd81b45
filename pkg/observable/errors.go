package observable

import "github.com/vango-dev/livestore/internal/errors"

// ErrInvalidArgument is matched by every validation error of this package.
var ErrInvalidArgument = errors.ErrInvalidArgument

func errMissing(seg string) error {
	return errors.New("E104").Wrapf("no element %q", seg)
}

func errNotContainer(seg string) error {
	return errors.New("E104").Wrapf("%q is not inside a map or array", seg)
}

func errRootPath(op string) error {
	return errors.New("E104").
		Wrapf("%s needs a path below the observed value", op).
		WithSuggestion("The observed value itself cannot be replaced; set its members instead")
}

func errIndex(seg string, length int) error {
	return errors.New("E104").Wrapf("index %q out of range [0,%d]", seg, length)
}

func errNotArray(path Path, got any) error {
	return errors.New("E105").Wrapf("%q is %T, not an array", path.String(), got)
}

func errNotContainerAt(path Path, got any) error {
	return errors.New("E105").Wrapf("%q is %T, not a map or array", path.String(), got)
}
