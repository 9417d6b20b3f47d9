package coordination

import "testing"

func TestLockReentrantAndExclusive(t *testing.T) {
	s := NewState()
	if !s.AcquireLock("a", "caller1") {
		t.Fatal("expected first acquire to succeed")
	}
	if !s.AcquireLock("a", "caller1") {
		t.Fatal("expected reentrant acquire by the same caller to succeed")
	}
	if s.AcquireLock("a", "caller2") {
		t.Fatal("expected acquire by a different caller to fail while held")
	}
	if err := s.ReleaseLock("a", "caller1"); err != nil {
		t.Fatalf("unexpected error releasing depth 2->1: %v", err)
	}
	if s.AcquireLock("a", "caller2") {
		t.Fatal("expected lock still held after first release (depth 1 remaining)")
	}
	if err := s.ReleaseLock("a", "caller1"); err != nil {
		t.Fatalf("unexpected error releasing depth 1->0: %v", err)
	}
	if !s.AcquireLock("a", "caller2") {
		t.Fatal("expected lock free after full release")
	}
}

func TestReleaseLockNotOwnerFails(t *testing.T) {
	s := NewState()
	s.AcquireLock("a", "caller1")
	if err := s.ReleaseLock("a", "caller2"); err == nil {
		t.Fatal("expected error releasing a lock held by someone else")
	}
}

func TestReleaseLocksTolerantOfAbsence(t *testing.T) {
	s := NewState()
	s.ReleaseLocks("nobody") // must not panic
}

func TestParallelValueDefaultsEmpty(t *testing.T) {
	s := NewState()
	if got := s.GetParallelValue("missing"); got != "" {
		t.Fatalf("expected empty string for missing key, got %q", got)
	}
	s.SetParallelValue("k", "v")
	if got := s.GetParallelValue("k"); got != "v" {
		t.Fatalf("got %q, want v", got)
	}
}

func TestAcquireValueSetTagSubsetMatch(t *testing.T) {
	s := NewState()
	s.LoadValueSets([]*ValueSet{
		{Name: "db1", Tags: []string{"db", "mysql"}, Fields: map[string]string{"host": "h1"}},
		{Name: "db2", Tags: []string{"db", "postgres"}, Fields: map[string]string{"host": "h2"}},
	})

	res, err := s.AcquireValueSet("caller1", []string{"mysql"})
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || res.name != "db1" {
		t.Fatalf("expected db1 to match tag mysql, got %+v", res)
	}
}

func TestAcquireValueSetRetrySignalWhenAllLeased(t *testing.T) {
	s := NewState()
	s.LoadValueSets([]*ValueSet{{Name: "only", Tags: []string{"x"}, Fields: map[string]string{}}})

	if _, err := s.AcquireValueSet("caller1", []string{"x"}); err != nil {
		t.Fatal(err)
	}
	res, err := s.AcquireValueSet("caller2", []string{"x"})
	if err != nil {
		t.Fatalf("expected nil,nil retry signal, got error: %v", err)
	}
	if res != nil {
		t.Fatalf("expected nil result when all matching sets are leased, got %+v", res)
	}
}

func TestAcquireValueSetNoMatchIsError(t *testing.T) {
	s := NewState()
	s.LoadValueSets([]*ValueSet{{Name: "only", Tags: []string{"x"}, Fields: map[string]string{}}})
	if _, err := s.AcquireValueSet("caller1", []string{"y"}); err == nil {
		t.Fatal("expected error when no configured set matches the requested tags")
	}
}

func TestAcquireValueSetAlreadyHeldIsError(t *testing.T) {
	s := NewState()
	s.LoadValueSets([]*ValueSet{
		{Name: "a", Tags: []string{"x"}, Fields: map[string]string{}},
		{Name: "b", Tags: []string{"x"}, Fields: map[string]string{}},
	})
	if _, err := s.AcquireValueSet("caller1", []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AcquireValueSet("caller1", []string{"x"}); err == nil {
		t.Fatal("expected error when caller already holds a lease")
	}
}

func TestGetValueFromSetRequiresLease(t *testing.T) {
	s := NewState()
	s.LoadValueSets([]*ValueSet{{Name: "a", Tags: []string{"x"}, Fields: map[string]string{"k": "v"}}})
	if _, err := s.GetValueFromSet("k", "caller1"); err == nil {
		t.Fatal("expected error reading a field without a lease")
	}
	if _, err := s.AcquireValueSet("caller1", []string{"x"}); err != nil {
		t.Fatal(err)
	}
	val, err := s.GetValueFromSet("k", "caller1")
	if err != nil {
		t.Fatal(err)
	}
	if val != "v" {
		t.Fatalf("got %q, want v", val)
	}
}

func TestReleaseValueSetFreesItForOthers(t *testing.T) {
	s := NewState()
	s.LoadValueSets([]*ValueSet{{Name: "a", Tags: []string{"x"}, Fields: map[string]string{}}})
	if _, err := s.AcquireValueSet("caller1", []string{"x"}); err != nil {
		t.Fatal(err)
	}
	s.ReleaseValueSet("caller1")
	res, err := s.AcquireValueSet("caller2", []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if res == nil {
		t.Fatal("expected caller2 to acquire the now-free set")
	}
}

func TestAddedSuitesDrainAtomically(t *testing.T) {
	s := NewState()
	s.AddSuiteToExecutionQueue("Tests.Dyn1", map[string]string{"K": "V"})
	s.AddSuiteToExecutionQueue("Tests.Dyn2", nil)

	first := s.GetAddedSuites()
	if len(first) != 2 {
		t.Fatalf("expected 2 added suites, got %d", len(first))
	}
	second := s.GetAddedSuites()
	if len(second) != 0 {
		t.Fatalf("expected queue to be drained, got %d", len(second))
	}
}

func TestIgnoreExecution(t *testing.T) {
	s := NewState()
	if s.IsIgnoredExecution("c1") {
		t.Fatal("expected not ignored by default")
	}
	s.IgnoreExecution("c1")
	if !s.IsIgnoredExecution("c1") {
		t.Fatal("expected ignored after IgnoreExecution")
	}
}
