package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/randalmurphal/eventflow/pkg/eventflow/dataset"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	r := New[string, int]("plugin")

	require.NoError(t, r.Register("one", 1))
	require.NoError(t, r.Register("two", 2))

	v, ok := r.Get("one")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Get("three")
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}

func TestRegisterDuplicate(t *testing.T) {
	r := New[string, string]("plugin")
	require.NoError(t, r.Register("jets", "first"))

	err := r.Register("jets", "second")
	require.Error(t, err)
	assert.ErrorIs(t, err, eferrors.ErrDuplicateName)
	assert.Equal(t, `duplicate name "jets" already registered in plugin scope`, err.Error())

	v, _ := r.Get("jets")
	assert.Equal(t, "first", v)
}

func TestKeysKeepRegistrationOrder(t *testing.T) {
	r := New[string, int]("plugin")
	for i, k := range []string{"zeta", "alpha", "mu"} {
		require.NoError(t, r.Register(k, i))
	}
	assert.Equal(t, []string{"zeta", "alpha", "mu"}, r.Keys())

	r.Delete("alpha")
	r.Delete("missing")
	assert.Equal(t, []string{"zeta", "mu"}, r.Keys())
	assert.Equal(t, 2, r.Len())

	r.Replace("alpha", 7)
	r.Replace("zeta", 9)
	assert.Equal(t, []string{"zeta", "mu", "alpha"}, r.Keys())
	v, _ := r.Get("zeta")
	assert.Equal(t, 9, v)
}

func TestRange(t *testing.T) {
	r := New[int, int]("test")
	for i := range 5 {
		require.NoError(t, r.Register(i, i*i))
	}

	var seen []int
	r.Range(func(k, v int) bool {
		seen = append(seen, v)
		r.Delete(k)
		return k < 2
	})
	assert.Equal(t, []int{0, 1, 4}, seen)
	assert.Equal(t, 2, r.Len())

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Keys())
}

func TestConcurrentAccess(t *testing.T) {
	r := New[int, int]("test")
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register(i, i)
		}()
		go func() {
			defer wg.Done()
			r.Get(i)
			r.Keys()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Len())
}

type refreshing struct {
	files []string
	err   error
}

func (r *refreshing) Refresh(_ context.Context, _ *dataset.Dataset, f dataset.File) error {
	r.files = append(r.files, f.Path)
	return r.err
}

func testDataset(t *testing.T) (*dataset.Dataset, []dataset.File) {
	t.Helper()
	ds := dataset.New(dataset.ProcessTTbar)
	require.NoError(t, ds.AddFile("/store/ttbar_1.root", 831.76, 100))
	require.NoError(t, ds.AddFile("/store/ttbar_2.root", 831.76, 100))
	return ds, ds.Files()
}

func TestServices_DuplicateWithinScope(t *testing.T) {
	s := NewServices()

	require.NoError(t, s.Register("lumi", 1, LifetimeRun))
	err := s.Register("lumi", 2, LifetimeRun)
	assert.ErrorIs(t, err, eferrors.ErrDuplicateName)
	assert.Contains(t, err.Error(), "run scope")

	// A different scope may reuse the name; the dataset entry shadows.
	require.NoError(t, s.Register("lumi", 3, LifetimeDataset))
	got, err := s.Lookup("lumi")
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	require.NoError(t, s.RegisterFactory("jec", func(*dataset.Dataset, dataset.File) (any, error) { return 1, nil }))
	assert.ErrorIs(t, s.RegisterFactory("jec", func(*dataset.Dataset, dataset.File) (any, error) { return 1, nil }), eferrors.ErrDuplicateName)
	assert.ErrorIs(t, s.Register("jec", 4, LifetimeDataset), eferrors.ErrDuplicateName)
	assert.ErrorIs(t, s.RegisterFactory("lumi", func(*dataset.Dataset, dataset.File) (any, error) { return 1, nil }), eferrors.ErrDuplicateName)

	assert.ErrorIs(t, s.RegisterFactory("nil", nil), eferrors.ErrInvalidConfiguration)
	assert.ErrorIs(t, s.Register("odd", 1, Lifetime(9)), eferrors.ErrInvalidConfiguration)
}

func TestServices_LookupUnresolved(t *testing.T) {
	s := NewServices()
	_, err := s.Lookup("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, eferrors.ErrUnresolvedDependency)
	assert.Equal(t, `unresolved dependency: "missing"`, err.Error())
}

func TestServices_RefreshRebuildsFactories(t *testing.T) {
	s := NewServices()
	ds, files := testDataset(t)

	builds := 0
	require.NoError(t, s.RegisterFactory("corrector", func(_ *dataset.Dataset, f dataset.File) (any, error) {
		builds++
		return f.Path, nil
	}))
	assert.True(t, s.Has("corrector"))

	_, err := s.Lookup("corrector")
	assert.ErrorIs(t, err, eferrors.ErrUnresolvedDependency)

	gen := s.Generation()
	require.NoError(t, s.Refresh(context.Background(), ds, files[0]))
	assert.Greater(t, s.Generation(), gen)
	got, err := s.Lookup("corrector")
	require.NoError(t, err)
	assert.Equal(t, "/store/ttbar_1.root", got)

	require.NoError(t, s.Refresh(context.Background(), ds, files[1]))
	got, err = s.Lookup("corrector")
	require.NoError(t, err)
	assert.Equal(t, "/store/ttbar_2.root", got)
	assert.Equal(t, 2, builds)

	s.ResetDataset()
	_, err = s.Lookup("corrector")
	assert.ErrorIs(t, err, eferrors.ErrUnresolvedDependency)
}

func TestServices_RefreshCallsRefresher(t *testing.T) {
	s := NewServices()
	ds, files := testDataset(t)

	runSvc := &refreshing{}
	dsSvc := &refreshing{}
	require.NoError(t, s.Register("run", runSvc, LifetimeRun))
	require.NoError(t, s.Register("ds", dsSvc, LifetimeDataset))

	for _, f := range files {
		require.NoError(t, s.Refresh(context.Background(), ds, f))
	}
	assert.Equal(t, []string{"/store/ttbar_1.root", "/store/ttbar_2.root"}, dsSvc.files)
	assert.Empty(t, runSvc.files, "run-scoped services persist untouched")

	// Static dataset services survive ResetDataset.
	s.ResetDataset()
	got, err := s.Lookup("ds")
	require.NoError(t, err)
	assert.Same(t, dsSvc, got)
}

func TestServices_RefreshErrors(t *testing.T) {
	ds, files := testDataset(t)
	boom := errors.New("boom")

	s := NewServices()
	require.NoError(t, s.RegisterFactory("bad", func(*dataset.Dataset, dataset.File) (any, error) { return nil, boom }))
	err := s.Refresh(context.Background(), ds, files[0])
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `build service "bad"`)

	s = NewServices()
	require.NoError(t, s.Register("stale", &refreshing{err: boom}, LifetimeDataset))
	err = s.Refresh(context.Background(), ds, files[0])
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `refresh service "stale"`)
}

func TestServices_NamesAndLifetime(t *testing.T) {
	s := NewServices()
	require.NoError(t, s.Register("b", 1, LifetimeRun))
	require.NoError(t, s.Register("a", 1, LifetimeDataset))
	require.NoError(t, s.Register("a", 1, LifetimeRun))
	require.NoError(t, s.RegisterFactory("c", func(*dataset.Dataset, dataset.File) (any, error) { return 1, nil }))

	assert.Equal(t, []string{"b", "a", "c"}, s.Names())

	lt, ok := s.Lifetime("a")
	assert.True(t, ok)
	assert.Equal(t, LifetimeDataset, lt)
	lt, ok = s.Lifetime("b")
	assert.True(t, ok)
	assert.Equal(t, LifetimeRun, lt)
	_, ok = s.Lifetime("z")
	assert.False(t, ok)
	assert.Equal(t, "lifetime(7)", Lifetime(7).String())
}
