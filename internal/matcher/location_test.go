package matcher

import "testing"

func TestLocationResolverExact(t *testing.T) {
	index := createTestIndex(t)
	resolver := NewLocationResolver(index, 75)

	location, ok := resolver.Resolve("main st depot")
	if !ok {
		t.Fatal("exact counterparty did not resolve")
	}
	if location.Name != "Main St Depot" {
		t.Errorf("location = %q, expected %q", location.Name, "Main St Depot")
	}
}

func TestLocationResolverFuzzy(t *testing.T) {
	index := createTestIndex(t)
	resolver := NewLocationResolver(index, 75)

	// One edit run away from "MAIN ST DEPOT".
	location, ok := resolver.Resolve("Main Street Depot")
	if !ok {
		t.Fatal("fuzzy counterparty did not resolve")
	}
	if location.Name != "Main St Depot" {
		t.Errorf("location = %q, expected %q", location.Name, "Main St Depot")
	}
}

func TestLocationResolverMiss(t *testing.T) {
	index := createTestIndex(t)
	resolver := NewLocationResolver(index, 75)

	if _, ok := resolver.Resolve("Completely Different Facility"); ok {
		t.Error("unrelated counterparty resolved to a location")
	}

	if _, ok := resolver.Resolve(""); ok {
		t.Error("empty counterparty resolved to a location")
	}
}

func TestLocationResolverMemoization(t *testing.T) {
	index := createTestIndex(t)
	resolver := NewLocationResolver(index, 75)

	resolver.Resolve("Main St Depot")
	resolver.Resolve("MAIN ST DEPOT")
	resolver.Resolve("main   st   depot")
	resolver.Resolve("Completely Different Facility")

	// Three calls share one normalized key; the failed lookup is cached too.
	if got := resolver.CachedResolutions(); got != 2 {
		t.Errorf("cached resolutions = %d, expected 2", got)
	}

	// A memoized miss stays a miss.
	if _, ok := resolver.Resolve("Completely Different Facility"); ok {
		t.Error("memoized miss turned into a hit")
	}
}
