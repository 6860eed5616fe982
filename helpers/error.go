package helpers

import (
	"strings"
	"sync"

	"github.com/juju/errors"
)

func WrapErrChan(wg *sync.WaitGroup, ch chan<- error, fun func() error) {
	defer wg.Done()
	if err := fun(); err != nil {
		ch <- err
	}
}

func FoldErrChan(ch <-chan error) error {
	errs := make([]error, 0, 8)
	for e := range ch {
		if e != nil {
			errs = append(errs, e)
		}
	}
	return FoldErrors(errs)
}

func FoldErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	ss := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			ss = append(ss, e.Error())
		}
	}
	if len(ss) == 0 {
		return nil
	}
	return errors.Errorf(strings.Join(ss, "\n"))
}
