package coordination

import (
	"fmt"
	"sort"
	"sync"
)

// lockEntry is one named lock's reentrant ownership: the caller holding it
// and how many nested acquisitions are outstanding.
type lockEntry struct {
	owner string
	depth int
}

// ValueSet is one configured value set from the resource file: its name,
// its fields (including the reserved "tags" field expanded into Tags), and
// whether it is currently leased.
type ValueSet struct {
	Name   string
	Fields map[string]string
	Tags   []string

	leasedBy string // caller-id, empty when free
	disabled bool
}

// hasTags reports whether the set's tags are a superset of want.
func (v *ValueSet) hasTags(want []string) bool {
	have := make(map[string]struct{}, len(v.Tags))
	for _, t := range v.Tags {
		have[t] = struct{}{}
	}
	for _, w := range want {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}

// AddedSuite is one dynamically injected suite, pushed by
// add_suite_to_execution_queue and drained by the scheduler via
// get_added_suites.
type AddedSuite struct {
	Name      string
	Variables map[string]string
}

// SharedLibraryImport records one import_shared_library call's nested
// server, keyed by (name, callerID): a repeated import by the same caller
// reuses that caller's port, while different callers each get their own
// nested server. Every nested server serves the same State.
type SharedLibraryImport struct {
	Name string
	Port int
}

// State holds every piece of cross-process state the coordination server
// arbitrates, behind a single mutex: per §4.4, "all RPC method invocations
// are serialized; no operation blocks indefinitely server-side" — so a
// plain sync.Mutex (not per-field locking) matches the server's own
// concurrency contract.
type State struct {
	mu sync.Mutex

	parallelValues map[string]string
	locks          map[string]*lockEntry
	valueSets      map[string]*ValueSet
	leaseOf        map[string]string // caller-id -> leased set name
	addedSuites    []AddedSuite
	ignored        map[string]bool
	sharedLibs     map[string]*SharedLibraryImport // "name|callerID" -> import
}

// NewState builds an empty coordination state; value sets are populated
// separately from the parsed resource file via LoadValueSets.
func NewState() *State {
	return &State{
		parallelValues: make(map[string]string),
		locks:          make(map[string]*lockEntry),
		valueSets:      make(map[string]*ValueSet),
		leaseOf:        make(map[string]string),
		ignored:        make(map[string]bool),
		sharedLibs:     make(map[string]*SharedLibraryImport),
	}
}

// LoadValueSets replaces the configured value sets wholesale, used both at
// startup and whenever the resource file is hot-reloaded (§11.7). Existing
// leases for sets that survive by name are preserved; leases for sets that
// disappeared are dropped.
func (s *State) LoadValueSets(sets []*ValueSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*ValueSet, len(sets))
	for _, set := range sets {
		if old, ok := s.valueSets[set.Name]; ok {
			set.leasedBy = old.leasedBy
		}
		next[set.Name] = set
	}
	s.valueSets = next
	for callerID, name := range s.leaseOf {
		if _, ok := next[name]; !ok {
			delete(s.leaseOf, callerID)
		}
	}
}

func (s *State) SetParallelValue(key, val string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parallelValues[key] = val
}

func (s *State) GetParallelValue(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parallelValues[key]
}

// AcquireLock succeeds if the lock is free or already owned by callerID,
// incrementing its reentrant depth; returns false if owned by someone else.
func (s *State) AcquireLock(name, callerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.locks[name]
	if !ok {
		s.locks[name] = &lockEntry{owner: callerID, depth: 1}
		return true
	}
	if e.owner != callerID {
		return false
	}
	e.depth++
	return true
}

// ReleaseLock decrements the reentrant depth, deleting the entry at zero.
// Fails if callerID is not the current owner.
func (s *State) ReleaseLock(name, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.locks[name]
	if !ok || e.owner != callerID {
		return fmt.Errorf("coordination: %q does not hold lock %q", callerID, name)
	}
	e.depth--
	if e.depth <= 0 {
		delete(s.locks, name)
	}
	return nil
}

// ReleaseLocks releases every lock callerID holds, tolerating the case
// where it holds none.
func (s *State) ReleaseLocks(callerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, e := range s.locks {
		if e.owner == callerID {
			delete(s.locks, name)
		}
	}
}

// acquireValueSetResult distinguishes "no set exists" (an error) from "a
// matching set exists but all are leased" (the (nil,nil) retry signal).
type acquireValueSetResult struct {
	name   string
	fields map[string]string
}

// AcquireValueSet leases one value set whose tags are a superset of want,
// preferring the lowest-named match for determinism. Returns
// (nil, nil) when a match exists but every matching set is leased
// (the caller retries); returns an error if callerID already holds a lease,
// or if no configured set matches the requested tags at all.
func (s *State) AcquireValueSet(callerID string, want []string) (*acquireValueSetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, already := s.leaseOf[callerID]; already {
		return nil, fmt.Errorf("coordination: %q already holds a value set lease", callerID)
	}

	names := make([]string, 0, len(s.valueSets))
	for name := range s.valueSets {
		names = append(names, name)
	}
	sort.Strings(names)

	anyMatch := false
	for _, name := range names {
		set := s.valueSets[name]
		if set.disabled || !set.hasTags(want) {
			continue
		}
		anyMatch = true
		if set.leasedBy != "" {
			continue
		}
		set.leasedBy = callerID
		s.leaseOf[callerID] = name
		return &acquireValueSetResult{name: name, fields: set.Fields}, nil
	}
	if !anyMatch {
		return nil, fmt.Errorf("coordination: no configured value set matches tags %v", want)
	}
	return nil, nil
}

func (s *State) ReleaseValueSet(callerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.leaseOf[callerID]
	if !ok {
		return
	}
	if set, ok := s.valueSets[name]; ok {
		set.leasedBy = ""
	}
	delete(s.leaseOf, callerID)
}

// DisableValueSet permanently removes a value set, releasing it first if
// leased by callerID.
func (s *State) DisableValueSet(name, callerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.valueSets[name]; ok {
		set.disabled = true
	}
	if s.leaseOf[callerID] == name {
		delete(s.leaseOf, callerID)
	}
}

func (s *State) GetValueFromSet(key, callerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.leaseOf[callerID]
	if !ok {
		return "", fmt.Errorf("coordination: %q does not hold a value set lease", callerID)
	}
	set, ok := s.valueSets[name]
	if !ok {
		return "", fmt.Errorf("coordination: leased value set %q no longer exists", name)
	}
	val, ok := set.Fields[key]
	if !ok {
		return "", fmt.Errorf("coordination: value set %q has no field %q", name, key)
	}
	return val, nil
}

func (s *State) AddSuiteToExecutionQueue(name string, variables map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addedSuites = append(s.addedSuites, AddedSuite{Name: name, Variables: variables})
}

// GetAddedSuites atomically drains the queue of dynamically added suites.
func (s *State) GetAddedSuites() []AddedSuite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.addedSuites
	s.addedSuites = nil
	return out
}

func (s *State) IgnoreExecution(callerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ignored[callerID] = true
}

func (s *State) IsIgnoredExecution(callerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ignored[callerID]
}

// RegisterSharedLibrary records that a nested server for name/callerID
// listens on port, so a later import_shared_library call for the same
// (name, callerID) pair returns the existing port instead of starting a
// second instance.
func (s *State) RegisterSharedLibrary(name, callerID string, port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sharedLibs[name+"|"+callerID] = &SharedLibraryImport{Name: name, Port: port}
}

func (s *State) LookupSharedLibrary(name, callerID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	imp, ok := s.sharedLibs[name+"|"+callerID]
	if !ok {
		return 0, false
	}
	return imp.Port, true
}
