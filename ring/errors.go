package ring

import "errors"

// ErrCorrupt signals a bucket whose header disagrees with its contents.
var ErrCorrupt = errors.New("ring: inconsistent bucket state")
