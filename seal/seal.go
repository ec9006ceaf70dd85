// Package seal marks object graphs as immutable.
//
// Go has no runtime write barrier, so sealing is a contract between the host
// and its own code: the guard hands plugins a sealed deep copy of their
// manifest, and Sealed lets enforcement code assert that a value it received
// is the graph it sealed, not a mutated substitute. Sealing walks the full
// graph once; re-sealing an already sealed graph is a fast no-op.
//
// The registry holds weak references and evicts an entry once the runtime
// reclaims its object, so long-running hosts do not accumulate entries for
// dead graphs and a recycled address is never mistaken for a sealed one.
package seal

import (
	"reflect"
	"runtime"
	"sync"
	"weak"
)

// identity keys the registry by object identity, never by value. The type
// disambiguates a struct from its first field, which share an address, and
// the length disambiguates a slice from an aliasing prefix of the same
// backing array.
type identity struct {
	typ reflect.Type
	ptr uintptr
	len int
}

func keyOf(v reflect.Value) identity {
	k := identity{typ: v.Type(), ptr: v.Pointer()}
	if v.Kind() == reflect.Slice {
		k.len = v.Len()
	}
	return k
}

// registry.sealed entries are weak; an entry counts only while it still
// refers to the object it was created for. Func and unsafe pointer values
// reference code or foreign memory the runtime cannot reclaim-track, so they
// are pinned strongly instead.
var registry = struct {
	sync.RWMutex
	sealed map[identity]weak.Pointer[byte]
	pinned map[identity]any
}{
	sealed: make(map[identity]weak.Pointer[byte]),
	pinned: make(map[identity]any),
}

// Deep seals v and everything reachable from it, returning v unchanged.
// Cycles terminate because every reference is marked before its referents
// are walked. Nil and non-reference values are no-ops.
func Deep[T any](v T) T {
	w := walker{
		weakly: make(map[identity]*byte),
		pinned: make(map[identity]any),
	}
	w.walk(reflect.ValueOf(v))
	w.commit()
	return v
}

// Sealed reports whether v has been sealed. Non-reference values
// (numbers, strings, booleans, struct copies) are inherently copies and
// always report true; reference values report true only after Deep has
// visited them. Nil references and empty slices hold nothing mutable and
// report true.
func Sealed(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Func, reflect.UnsafePointer:
		if rv.IsNil() {
			return true
		}
		registry.RLock()
		defer registry.RUnlock()
		_, ok := registry.pinned[keyOf(rv)]
		return ok
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan:
		if rv.IsNil() {
			return true
		}
		if rv.Kind() == reflect.Slice && rv.Len() == 0 {
			return true
		}
		return live(keyOf(rv), (*byte)(rv.UnsafePointer()))
	default:
		return true
	}
}

// live reports whether the registry holds an entry for key that still refers
// to the object at obj. A stale entry left by a reclaimed object never
// matches, so a reused address cannot report a fresh graph as sealed.
func live(key identity, obj *byte) bool {
	registry.RLock()
	wp, ok := registry.sealed[key]
	registry.RUnlock()
	return ok && wp.Value() == obj
}

// walker accumulates one walk's newly visited references locally; the
// registry write lock is held only for the final commit, never for the walk
// itself.
type walker struct {
	weakly map[identity]*byte
	pinned map[identity]any
}

// mark records the reference in the walk's pending set. It returns false
// when the reference was already visited or already sealed, which both
// breaks cycles and makes repeated Deep calls terminate without re-walking.
func (w *walker) mark(v reflect.Value) bool {
	key := keyOf(v)
	if _, ok := w.weakly[key]; ok {
		return false
	}
	obj := (*byte)(v.UnsafePointer())
	if live(key, obj) {
		return false
	}
	w.weakly[key] = obj
	return true
}

func (w *walker) pin(v reflect.Value) {
	key := keyOf(v)
	if _, ok := w.pinned[key]; ok {
		return
	}
	w.pinned[key] = v.Interface()
}

func (w *walker) walk(v reflect.Value) {
	switch v.Kind() {
	case reflect.Invalid:
		return

	case reflect.Interface:
		if !v.IsNil() {
			w.walk(v.Elem())
		}

	case reflect.Ptr:
		if v.IsNil() || !w.mark(v) {
			return
		}
		w.walk(v.Elem())

	case reflect.Map:
		if v.IsNil() || !w.mark(v) {
			return
		}
		iter := v.MapRange()
		for iter.Next() {
			w.walk(iter.Key())
			w.walk(iter.Value())
		}

	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 || !w.mark(v) {
			return
		}
		for i := 0; i < v.Len(); i++ {
			w.walk(v.Index(i))
		}

	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			w.walk(v.Index(i))
		}

	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			w.walk(v.Field(i))
		}

	case reflect.Chan:
		if !v.IsNil() {
			w.mark(v)
		}

	case reflect.Func, reflect.UnsafePointer:
		if !v.IsNil() {
			w.pin(v)
		}
	}
}

// commit publishes the walk's pending set. An existing entry that is still
// live keeps its cleanup; anything else is (re)registered with a cleanup
// that evicts the key once the object is reclaimed.
func (w *walker) commit() {
	registry.Lock()
	defer registry.Unlock()
	for key, obj := range w.weakly {
		if wp, ok := registry.sealed[key]; ok && wp.Value() == obj {
			continue
		}
		registry.sealed[key] = weak.Make(obj)
		runtime.AddCleanup(obj, evict, key)
	}
	for key, ref := range w.pinned {
		if _, ok := registry.pinned[key]; !ok {
			registry.pinned[key] = ref
		}
	}
}

// evict drops key once its object has been reclaimed. A key whose entry is
// live again belongs to a new object at a recycled address and stays.
func evict(key identity) {
	registry.Lock()
	defer registry.Unlock()
	if wp, ok := registry.sealed[key]; ok && wp.Value() == nil {
		delete(registry.sealed, key)
	}
}
