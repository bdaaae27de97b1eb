package secstore

import (
	"os"
	"sync"

	"github.com/VictoriaMetrics/metrics"
	"github.com/bitmark-inc/logger"
	"github.com/jklemens/sKV/lib/envelope"
	"github.com/jklemens/sKV/lib/namespace"
	"github.com/jklemens/sKV/lib/platform"
	"github.com/jklemens/sKV/lib/replica"
	"github.com/jklemens/sKV/lib/store"
	"github.com/jklemens/sKV/lib/store/config"
)

type secStoreImpl struct {
	mu             *sync.Mutex // borrowed from the caller, never owned
	codec          *envelope.Codec
	replicas       *replica.Manager
	ns             *namespace.Manager
	log            *logger.L
	metricsEnabled bool
}

// NewSecureStore creates a secure store instance. The platform provider
// supplies the replica base directories and the identity that key
// derivation binds records to; failure of any capability is fatal here.
//
// The mutex is borrowed, not owned: every public operation acquires it for
// its entire duration, so a caller may share the same mutex with other
// subsystems operating on the same directories. conf may be nil, which
// means platform defaults.
func NewSecureStore(provider platform.Provider, mu *sync.Mutex, conf *config.StoreConfig) (store.IStore, error) {
	if mu == nil {
		return nil, store.NewError(store.RetCInvalidOperation, "nil mutex")
	}
	if conf == nil {
		conf = config.DefaultConfig()
	}

	userName, err := provider.UserName()
	if err != nil {
		return nil, store.NewError(store.RetCCapabilityFailure, "user name unavailable: "+err.Error())
	}
	machineID, err := provider.MachineID()
	if err != nil {
		return nil, store.NewError(store.RetCCapabilityFailure, "machine id unavailable: "+err.Error())
	}

	var bases [3]string
	if conf.BasePaths[0] != "" && conf.BasePaths[1] != "" && conf.BasePaths[2] != "" {
		bases = conf.BasePaths
	} else {
		bases, err = provider.BasePaths()
		if err != nil {
			return nil, store.NewError(store.RetCCapabilityFailure, "base paths unavailable: "+err.Error())
		}
	}
	for _, base := range bases {
		if err := os.MkdirAll(base, 0700); err != nil {
			return nil, store.NewError(store.RetCCapabilityFailure, "cannot create base dir "+base+": "+err.Error())
		}
	}

	logTag := conf.LogTag
	if logTag == "" {
		logTag = config.DefaultConfig().LogTag
	}

	codec := envelope.NewCodec(userName, machineID)
	return &secStoreImpl{
		mu:             mu,
		codec:          codec,
		replicas:       replica.NewManager(bases, codec, conf.MetricsEnabled),
		ns:             namespace.NewManager(bases),
		log:            logger.New(logTag),
		metricsEnabled: conf.MetricsEnabled,
	}, nil
}

// count increments a metrics counter when metrics are enabled.
func (s *secStoreImpl) count(name string) {
	if s.metricsEnabled {
		metrics.GetOrCreateCounter(name).Inc()
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *secStoreImpl) Store(dataKey string, value store.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeLocked("", dataKey, value)
}

func (s *secStoreImpl) StoreToModule(module, dataKey string, value store.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeLocked(module, dataKey, value)
}

func (s *secStoreImpl) storeLocked(module, dataKey string, value store.Value) error {
	if !value.Tag().Valid() {
		return store.NewError(store.RetCInvalidOperation, "zero value cannot be stored")
	}

	ciphertext, err := s.codec.Encode(value.Tag(), value.Text(), dataKey)
	if err != nil {
		return store.NewError(store.RetCIOFailure, "encode failed: "+err.Error())
	}

	if err := s.replicas.Write(module, dataKey, ciphertext); err != nil {
		s.log.Errorf("store of %q failed: %s", dataKey, err)
		return err
	}

	s.count("skv_store_total")
	return nil
}

func (s *secStoreImpl) Retrieve(dataKey string, tag store.TypeTag) (store.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retrieveLocked("", dataKey, tag)
}

func (s *secStoreImpl) RetrieveFromModule(module, dataKey string, tag store.TypeTag) (store.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retrieveLocked(module, dataKey, tag)
}

func (s *secStoreImpl) retrieveLocked(module, dataKey string, tag store.TypeTag) (store.Value, bool, error) {
	if !tag.Valid() {
		return store.Value{}, false, store.NewError(store.RetCInvalidOperation, "unknown type tag: "+string(tag))
	}

	s.count("skv_retrieve_total")

	text, drift, err := s.replicas.Retrieve(module, dataKey, tag)
	if err != nil {
		if store.CodeOf(err) == store.RetCNotFound {
			s.count("skv_retrieve_miss_total")
		}
		return store.Value{}, false, err
	}

	value, err := store.ParseValue(tag, text)
	if err != nil {
		return store.Value{}, false, err
	}

	if drift {
		s.count("skv_retrieve_drift_total")
	}
	return value, drift, nil
}

func (s *secStoreImpl) Delete(dataKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("skv_delete_total")
	return s.replicas.Delete("", dataKey)
}

func (s *secStoreImpl) DeleteFromModule(module, dataKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("skv_delete_total")
	return s.replicas.Delete(module, dataKey)
}

func (s *secStoreImpl) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns.DeleteAllData()
}

func (s *secStoreImpl) CreateModule(parent, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns.CreateModule(parent, name)
}

func (s *secStoreImpl) RemoveModule(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns.RemoveModule(path)
}

func (s *secStoreImpl) DeleteAllDataFromModule(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns.DeleteAllDataFromModule(path)
}

func (s *secStoreImpl) GetAllKeys() ([]store.KeyRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns.ListAllKeys()
}

func (s *secStoreImpl) GetKeysInModule(module string) ([]store.KeyRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns.ListKeysInModule(module)
}

func (s *secStoreImpl) GetDirectKeysInModule(module string) ([]store.KeyRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns.ListDirectKeysInModule(module)
}

func (s *secStoreImpl) GetAllModules() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns.ListAllModules()
}

func (s *secStoreImpl) GetAllSubmodules(prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns.ListSubmodules(prefix)
}

func (s *secStoreImpl) Contains(dataKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns.Contains(dataKey)
}
