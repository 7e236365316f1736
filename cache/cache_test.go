package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/matryer/is"
)

func TestLoadCachesObjects(t *testing.T) {
	is := is.New(t)
	CreateGlobalObjectCache()
	calls := 0
	loader := func(key string) (any, error) {
		calls++
		return "obj-" + key, nil
	}
	obj, err := Load("a", loader)
	is.NoErr(err)
	is.Equal(obj, "obj-a")
	obj, err = Load("a", loader)
	is.NoErr(err)
	is.Equal(obj, "obj-a")
	is.Equal(calls, 1)

	_, err = Load("b", loader)
	is.NoErr(err)
	is.Equal(calls, 2)
	is.Equal(Len(), 2)
}

func TestFailedLoadIsNotCached(t *testing.T) {
	is := is.New(t)
	CreateGlobalObjectCache()
	boom := errors.New("boom")
	_, err := Load("x", func(string) (any, error) { return nil, boom })
	is.Equal(err, boom)
	is.Equal(Len(), 0)

	obj, err := Load("x", func(string) (any, error) { return 3, nil })
	is.NoErr(err)
	is.Equal(obj, 3)
}

func TestConcurrentLoad(t *testing.T) {
	is := is.New(t)
	CreateGlobalObjectCache()
	var mu sync.Mutex
	calls := 0
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Load("shared", func(string) (any, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				return struct{}{}, nil
			})
			is.NoErr(err)
		}()
	}
	wg.Wait()
	is.Equal(calls, 1)
}
