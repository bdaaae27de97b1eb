package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jklemens/sKV/lib/replica"
	"github.com/jklemens/sKV/lib/store"
)

// StoreFactory is a function that creates a fresh store instance together
// with the three replica base directories it writes to. The bases let the
// fault-injection tests corrupt and remove individual replicas.
type StoreFactory func() (s store.IStore, bases [3]string, err error)

// RunStoreTests runs a comprehensive conformance suite for an IStore
// implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("RoundTrip", func(t *testing.T) {
			testRoundTrip(t, factory)
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory)
		})

		t.Run("SaltFreshness", func(t *testing.T) {
			testSaltFreshness(t, factory)
		})

		t.Run("ReplicaLoss", func(t *testing.T) {
			testReplicaLoss(t, factory)
		})

		t.Run("TamperOne", func(t *testing.T) {
			testTamperOne(t, factory)
		})

		t.Run("TamperTwo", func(t *testing.T) {
			testTamperTwo(t, factory)
		})

		t.Run("AllReplicasGone", func(t *testing.T) {
			testAllReplicasGone(t, factory)
		})

		t.Run("TypeMismatch", func(t *testing.T) {
			testTypeMismatch(t, factory)
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory)
		})

		t.Run("Modules", func(t *testing.T) {
			testModules(t, factory)
		})

		t.Run("EnumerationQuorum", func(t *testing.T) {
			testEnumerationQuorum(t, factory)
		})

		t.Run("DeleteAll", func(t *testing.T) {
			testDeleteAll(t, factory)
		})

		t.Run("InvalidInputs", func(t *testing.T) {
			testInvalidInputs(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustStore(t testing.TB, factory StoreFactory) (store.IStore, [3]string) {
	t.Helper()
	s, bases, err := factory()
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	return s, bases
}

// recordFile returns the path of the record for dataKey on replica i.
func recordFile(bases [3]string, i int, module, dataKey string) string {
	if module == "" {
		return filepath.Join(bases[i], replica.RecordFileName(dataKey))
	}
	return filepath.Join(bases[i], filepath.FromSlash(module), replica.RecordFileName(dataKey))
}

func readReplica(t *testing.T, bases [3]string, i int, module, dataKey string) []byte {
	t.Helper()
	data, err := os.ReadFile(recordFile(bases, i, module, dataKey))
	if err != nil {
		t.Fatalf("cannot read replica %d of %q: %v", i, dataKey, err)
	}
	return data
}

func corruptReplica(t *testing.T, bases [3]string, i int, module, dataKey string, junk []byte) {
	t.Helper()
	if err := os.WriteFile(recordFile(bases, i, module, dataKey), junk, 0600); err != nil {
		t.Fatalf("cannot corrupt replica %d of %q: %v", i, dataKey, err)
	}
}

func removeReplica(t *testing.T, bases [3]string, i int, module, dataKey string) {
	t.Helper()
	if err := os.Remove(recordFile(bases, i, module, dataKey)); err != nil {
		t.Fatalf("cannot remove replica %d of %q: %v", i, dataKey, err)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testRoundTrip(t *testing.T, factory StoreFactory) {
	s, _ := mustStore(t, factory)

	cases := []struct {
		key   string
		value store.Value
	}{
		{"greeting", store.String("hello")},
		{"empty", store.String("")},
		{"count", store.Int64(7)},
		{"negative", store.Int64(-9223372036854775808)},
		{"ratio", store.Float32(0.25)},
		{"pi", store.Float64(3.14)},
		{"flag-on", store.Bool(true)},
		{"flag-off", store.Bool(false)},
	}

	for _, c := range cases {
		if err := s.Store(c.key, c.value); err != nil {
			t.Errorf("Store(%q) failed: %v", c.key, err)
			continue
		}

		got, drift, err := s.Retrieve(c.key, c.value.Tag())
		if err != nil {
			t.Errorf("Retrieve(%q) failed: %v", c.key, err)
			continue
		}
		if drift {
			t.Errorf("Retrieve(%q) reported drift on a fresh write", c.key)
		}
		if got != c.value {
			t.Errorf("Retrieve(%q) = %v, expected %v", c.key, got, c.value)
		}
	}
}

func testOverwrite(t *testing.T, factory StoreFactory) {
	s, bases := mustStore(t, factory)

	if err := s.Store("x", store.String("a")); err != nil {
		t.Fatalf("first Store failed: %v", err)
	}
	if err := s.Store("x", store.String("b")); err != nil {
		t.Fatalf("second Store failed: %v", err)
	}

	got, drift, err := s.Retrieve("x", store.TagString)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if drift {
		t.Errorf("expected no drift after overwrite")
	}
	if text, _ := got.AsString(); text != "b" {
		t.Errorf("expected overwritten value %q, got %q", "b", text)
	}

	// after one store call all three replicas must be bitwise equal
	r0 := readReplica(t, bases, 0, "", "x")
	r1 := readReplica(t, bases, 1, "", "x")
	r2 := readReplica(t, bases, 2, "", "x")
	if !bytesEqual(r0, r1) || !bytesEqual(r1, r2) {
		t.Errorf("replicas differ after overwrite")
	}
}

func testSaltFreshness(t *testing.T, factory StoreFactory) {
	s, bases := mustStore(t, factory)

	if err := s.Store("salted", store.String("same-value")); err != nil {
		t.Fatalf("first Store failed: %v", err)
	}
	first := readReplica(t, bases, 0, "", "salted")

	if err := s.Store("salted", store.String("same-value")); err != nil {
		t.Fatalf("second Store failed: %v", err)
	}
	second := readReplica(t, bases, 0, "", "salted")

	if bytesEqual(first, second) {
		t.Errorf("two stores of the same value produced identical ciphertext")
	}
}

func testReplicaLoss(t *testing.T, factory StoreFactory) {
	s, bases := mustStore(t, factory)

	if err := s.Store("count", store.Int64(7)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	removeReplica(t, bases, 1, "", "count")

	got, drift, err := s.Retrieve("count", store.TagInt64)
	if err != nil {
		t.Fatalf("Retrieve after replica loss failed: %v", err)
	}
	if !drift {
		t.Errorf("expected drift after losing one replica")
	}
	if i, _ := got.AsInt64(); i != 7 {
		t.Errorf("expected recovered value 7, got %d", i)
	}
}

func testTamperOne(t *testing.T, factory StoreFactory) {
	s, bases := mustStore(t, factory)

	if err := s.Store("tamper1", store.String("survives")); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	corruptReplica(t, bases, 2, "", "tamper1", []byte("arbitrary junk bytes"))

	got, drift, err := s.Retrieve("tamper1", store.TagString)
	if err != nil {
		t.Fatalf("Retrieve after tampering failed: %v", err)
	}
	if !drift {
		t.Errorf("expected drift after tampering with one replica")
	}
	if text, _ := got.AsString(); text != "survives" {
		t.Errorf("expected original value, got %q", text)
	}
}

func testTamperTwo(t *testing.T, factory StoreFactory) {
	s, bases := mustStore(t, factory)

	if err := s.Store("tamper2", store.Bool(true)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	corruptReplica(t, bases, 0, "", "tamper2", []byte("junk one junk one junk one junk!"))
	corruptReplica(t, bases, 1, "", "tamper2", []byte("a different pile of junk bytes!!"))

	got, drift, err := s.Retrieve("tamper2", store.TagBool)
	if err != nil {
		t.Fatalf("Retrieve after tampering failed: %v", err)
	}
	if !drift {
		t.Errorf("expected drift after tampering with two replicas")
	}
	if b, _ := got.AsBool(); !b {
		t.Errorf("expected recovered value true")
	}
}

func testAllReplicasGone(t *testing.T, factory StoreFactory) {
	s, bases := mustStore(t, factory)

	if err := s.Store("pi", store.Float64(3.14)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		removeReplica(t, bases, i, "", "pi")
	}

	_, _, err := s.Retrieve("pi", store.TagFloat64)
	if store.CodeOf(err) != store.RetCNotFound {
		t.Errorf("expected NotFound after removing all replicas, got %v", err)
	}
}

func testTypeMismatch(t *testing.T, factory StoreFactory) {
	s, _ := mustStore(t, factory)

	if err := s.Store("answer", store.Int64(42)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	_, _, err := s.Retrieve("answer", store.TagString)
	if store.CodeOf(err) != store.RetCTypeMismatch {
		t.Errorf("expected TypeMismatch when retrieving an int as string, got %v", err)
	}

	// the record is still intact under its real type
	got, _, err := s.Retrieve("answer", store.TagInt64)
	if err != nil {
		t.Fatalf("Retrieve with correct tag failed: %v", err)
	}
	if i, _ := got.AsInt64(); i != 42 {
		t.Errorf("expected 42, got %d", i)
	}
}

func testDelete(t *testing.T, factory StoreFactory) {
	s, _ := mustStore(t, factory)

	if err := s.Store("doomed", store.String("bye")); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	found, err := s.Contains("doomed")
	if err != nil {
		t.Fatalf("Contains failed: %v", err)
	}
	if !found {
		t.Errorf("expected Contains to report the stored key")
	}

	if err := s.Delete("doomed"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, _, err = s.Retrieve("doomed", store.TagString)
	if store.CodeOf(err) != store.RetCNotFound {
		t.Errorf("expected NotFound after Delete, got %v", err)
	}

	found, err = s.Contains("doomed")
	if err != nil {
		t.Fatalf("Contains failed: %v", err)
	}
	if found {
		t.Errorf("expected Contains to report false after Delete")
	}

	// deleting a nonexistent key is not an error
	if err := s.Delete("never-existed"); err != nil {
		t.Errorf("Delete of nonexistent key failed: %v", err)
	}
}

func testModules(t *testing.T, factory StoreFactory) {
	s, _ := mustStore(t, factory)

	if err := s.CreateModule("", "cfg"); err != nil {
		t.Fatalf("CreateModule failed: %v", err)
	}
	// idempotent, and "*" addresses the base itself rather than a literal
	// "*" directory
	if err := s.CreateModule("*", "cfg"); err != nil {
		t.Errorf("repeated CreateModule failed: %v", err)
	}
	created, err := s.GetAllModules()
	if err != nil {
		t.Fatalf("GetAllModules failed: %v", err)
	}
	if !containsString(created, "cfg") {
		t.Errorf("expected cfg after CreateModule with parent *, got %v", created)
	}
	for _, module := range created {
		if module == "*" || module == "*/cfg" {
			t.Errorf("CreateModule with parent * created a literal * directory: %v", created)
		}
	}
	if err := s.CreateModule("cfg", "net"); err != nil {
		t.Fatalf("CreateModule of nested module failed: %v", err)
	}

	if err := s.StoreToModule("cfg", "port", store.Int64(8080)); err != nil {
		t.Fatalf("StoreToModule failed: %v", err)
	}
	if err := s.StoreToModule("cfg/net", "proxy", store.String("socks5://localhost")); err != nil {
		t.Fatalf("StoreToModule into nested module failed: %v", err)
	}

	got, _, err := s.RetrieveFromModule("cfg", "port", store.TagInt64)
	if err != nil {
		t.Fatalf("RetrieveFromModule failed: %v", err)
	}
	if i, _ := got.AsInt64(); i != 8080 {
		t.Errorf("expected 8080, got %d", i)
	}

	direct, err := s.GetDirectKeysInModule("cfg")
	if err != nil {
		t.Fatalf("GetDirectKeysInModule failed: %v", err)
	}
	if len(direct) != 1 || direct[0].Key != "port" || direct[0].Module != "cfg" {
		t.Errorf("expected direct keys [cfg/port], got %v", direct)
	}

	all, err := s.GetKeysInModule("cfg")
	if err != nil {
		t.Fatalf("GetKeysInModule failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 keys under cfg (including descendants), got %v", all)
	}

	modules, err := s.GetAllModules()
	if err != nil {
		t.Fatalf("GetAllModules failed: %v", err)
	}
	if !containsString(modules, "cfg") || !containsString(modules, "cfg/net") {
		t.Errorf("expected modules to include cfg and cfg/net, got %v", modules)
	}

	subs, err := s.GetAllSubmodules("net")
	if err != nil {
		t.Fatalf("GetAllSubmodules failed: %v", err)
	}
	if !containsString(subs, "cfg/net") {
		t.Errorf("expected submodules of net to include cfg/net, got %v", subs)
	}

	// storing into a module that was never created must fail
	if err := s.StoreToModule("missing", "orphan", store.Bool(true)); store.CodeOf(err) != store.RetCIOFailure {
		t.Errorf("expected IOFailure when storing into a missing module, got %v", err)
	}

	// clearing data keeps the module, removing drops it
	if err := s.DeleteAllDataFromModule("cfg"); err != nil {
		t.Fatalf("DeleteAllDataFromModule failed: %v", err)
	}
	remaining, err := s.GetKeysInModule("cfg")
	if err != nil {
		t.Fatalf("GetKeysInModule failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected no keys after DeleteAllDataFromModule, got %v", remaining)
	}
	modules, err = s.GetAllModules()
	if err != nil {
		t.Fatalf("GetAllModules failed: %v", err)
	}
	if !containsString(modules, "cfg") {
		t.Errorf("expected cfg to survive DeleteAllDataFromModule, got %v", modules)
	}

	if err := s.RemoveModule("cfg"); err != nil {
		t.Fatalf("RemoveModule failed: %v", err)
	}
	modules, err = s.GetAllModules()
	if err != nil {
		t.Fatalf("GetAllModules failed: %v", err)
	}
	if containsString(modules, "cfg") {
		t.Errorf("expected cfg to be gone after RemoveModule, got %v", modules)
	}
}

func testEnumerationQuorum(t *testing.T, factory StoreFactory) {
	s, bases := mustStore(t, factory)

	keys := []string{"alpha", "beta", "gamma"}
	for _, key := range keys {
		if err := s.Store(key, store.String("v-"+key)); err != nil {
			t.Fatalf("Store(%q) failed: %v", key, err)
		}
	}

	// wipe replica 0 entirely; the surviving larger replicas must still
	// expose the full key set
	if err := os.RemoveAll(bases[0]); err != nil {
		t.Fatalf("cannot wipe replica 0: %v", err)
	}

	refs, err := s.GetAllKeys()
	if err != nil {
		t.Fatalf("GetAllKeys failed: %v", err)
	}
	if len(refs) != len(keys) {
		t.Errorf("expected %d keys after wiping one base, got %v", len(keys), refs)
	}
	for _, key := range keys {
		found := false
		for _, ref := range refs {
			if ref.Key == key {
				found = true
			}
		}
		if !found {
			t.Errorf("key %q missing from enumeration after wiping one base", key)
		}
	}
}

func testDeleteAll(t *testing.T, factory StoreFactory) {
	s, _ := mustStore(t, factory)

	if err := s.Store("a", store.String("1")); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := s.CreateModule("", "mod"); err != nil {
		t.Fatalf("CreateModule failed: %v", err)
	}
	if err := s.StoreToModule("mod", "b", store.String("2")); err != nil {
		t.Fatalf("StoreToModule failed: %v", err)
	}

	if err := s.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}

	refs, err := s.GetAllKeys()
	if err != nil {
		t.Fatalf("GetAllKeys failed: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("expected no keys after DeleteAll, got %v", refs)
	}
	modules, err := s.GetAllModules()
	if err != nil {
		t.Fatalf("GetAllModules failed: %v", err)
	}
	if len(modules) != 0 {
		t.Errorf("expected no modules after DeleteAll, got %v", modules)
	}
}

func testInvalidInputs(t *testing.T, factory StoreFactory) {
	s, _ := mustStore(t, factory)

	if err := s.Store("", store.String("x")); store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("expected InvalidOperation for empty key, got %v", err)
	}
	if err := s.Store("a/b", store.String("x")); store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("expected InvalidOperation for key with separator, got %v", err)
	}
	if err := s.Store(".hidden", store.String("x")); store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("expected InvalidOperation for key with leading dot, got %v", err)
	}
	if err := s.StoreToModule("../escape", "k", store.String("x")); store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("expected InvalidOperation for module escaping the base, got %v", err)
	}
	if err := s.CreateModule("", ".."); store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("expected InvalidOperation for module named .., got %v", err)
	}
	if err := s.RemoveModule(""); store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("expected InvalidOperation when removing the base, got %v", err)
	}
	if err := s.Store("zero", store.Value{}); store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("expected InvalidOperation for zero value, got %v", err)
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
